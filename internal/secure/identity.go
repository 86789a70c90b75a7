package secure

import (
	"fmt"
	"os/user"
)

// CurrentIdentity names the OS user the process runs as. It combines the
// numeric id and the login name so a recycled name does not inherit access.
func CurrentIdentity() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("looking up current user: %w", err)
	}
	return u.Uid + ":" + u.Username, nil
}
