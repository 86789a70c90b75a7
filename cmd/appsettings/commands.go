package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kalambet/appsettings/internal/config"
	"github.com/kalambet/appsettings/internal/settings"
	"github.com/kalambet/appsettings/internal/store"
)

// --- get ---

var (
	getType      string
	getDefault   string
	getEncrypted bool
	getExplain   bool
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Read a setting",
	Long: `Read a setting, converting it to the requested type.

An absent or unreadable key prints the default. Use --explain to see
which of the two happened.

Examples:
  appsettings get Ui.Language
  appsettings get Window.Width --type float --default 1200
  appsettings get User.Email --encrypted --explain`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := store.ParseKind(getType)
		if err != nil {
			return err
		}
		s, err := openStore()
		if err != nil {
			return err
		}

		res, err := lookupText(s, args[0], kind, getDefault, settings.EncryptedIf(getEncrypted))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, res.text)
		if getExplain {
			fmt.Fprintf(out, "  %s %s\n", colorize(colorBold, "source:"), res.source)
			if res.err != nil {
				fmt.Fprintf(out, "  %s %v\n", colorize(colorBold, "error:"), res.err)
			}
		} else if res.source == settings.SourceFallback {
			printWarning("stored value for %s is unreadable, showing default", args[0])
		}
		return nil
	},
}

func init() {
	getCmd.Flags().StringVar(&getType, "type", "string", "value type: string, bool, float or time")
	getCmd.Flags().StringVar(&getDefault, "default", "", "value returned when the key is absent or unreadable")
	getCmd.Flags().BoolVar(&getEncrypted, "encrypted", false, "decrypt the stored value")
	getCmd.Flags().BoolVar(&getExplain, "explain", false, "report where the value came from")
}

type lookupOutcome struct {
	text   string
	source settings.Source
	err    error
}

// lookupText reads key as kind and renders the result in canonical text
// form. def is parsed as kind; empty means the zero value.
func lookupText(s *settings.Store, key string, kind store.Kind, def string, opts ...settings.Option) (lookupOutcome, error) {
	dv := store.Value{Kind: kind}
	if def != "" {
		v, err := store.Decode(kind, def)
		if err != nil {
			return lookupOutcome{}, fmt.Errorf("invalid --default: %w", err)
		}
		dv = v
	}

	switch kind {
	case store.KindBool:
		r, err := s.LookupBool(key, dv.Bool, opts...)
		return lookupOutcome{store.Bool(r.Value).Text(), r.Source, r.Err}, err
	case store.KindFloat:
		r, err := s.LookupFloat(key, dv.Num, opts...)
		return lookupOutcome{store.Float(r.Value).Text(), r.Source, r.Err}, err
	case store.KindTime:
		r, err := s.LookupTime(key, dv.Time, opts...)
		return lookupOutcome{store.Time(r.Value).Text(), r.Source, r.Err}, err
	default:
		r, err := s.LookupString(key, dv.Str, opts...)
		return lookupOutcome{r.Value, r.Source, r.Err}, err
	}
}

// --- set ---

var (
	setType      string
	setEncrypted bool
)

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a setting",
	Long: `Write a setting of the given type.

Examples:
  appsettings set Ui.Language de-DE
  appsettings set Ui.IsDarkMode true --type bool
  appsettings set User.Email me@example.com --encrypted`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, text := args[0], args[1]

		kind, err := store.ParseKind(setType)
		if err != nil {
			return err
		}
		v, err := store.Decode(kind, text)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", kind, err)
		}
		s, err := openStore()
		if err != nil {
			return err
		}

		if err := setValue(s, key, v, settings.EncryptedIf(setEncrypted)); err != nil {
			return err
		}
		printSuccess("Set %s = %s", key, display(v.Text(), setEncrypted, false))
		return nil
	},
}

func init() {
	setCmd.Flags().StringVar(&setType, "type", "string", "value type: string, bool, float or time")
	setCmd.Flags().BoolVar(&setEncrypted, "encrypted", false, "encrypt the value at rest")
}

func setValue(s *settings.Store, key string, v store.Value, opts ...settings.Option) error {
	switch v.Kind {
	case store.KindBool:
		return s.SetBool(key, v.Bool, opts...)
	case store.KindFloat:
		return s.SetFloat(key, v.Num, opts...)
	case store.KindTime:
		return s.SetTime(key, v.Time, opts...)
	default:
		return s.SetString(key, v.Str, opts...)
	}
}

// --- rm ---

var rmCmd = &cobra.Command{
	Use:   "rm <key>",
	Short: "Remove a setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		if s.Remove(args[0]) {
			printSuccess("Removed %s", args[0])
		} else {
			printWarning("Nothing removed for %s", args[0])
		}
		return nil
	},
}

// --- clear ---

var clearConfirm bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored setting",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearConfirm {
			printWarning("This will delete ALL settings. Use --confirm to proceed.")
			return nil
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		printStep("Clearing settings...")
		if !s.Clear() {
			return fmt.Errorf("clearing settings failed, see log for details")
		}
		printSuccess("All settings cleared")
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVar(&clearConfirm, "confirm", false, "confirm deletion")
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored keys with their raw values",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		keys, err := s.Keys()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(keys) == 0 {
			fmt.Fprintln(out, "No settings stored.")
			return nil
		}
		for _, k := range keys {
			v, ok, err := s.Raw(k)
			if err != nil {
				printError("Reading %s: %v", k, err)
				continue
			}
			if !ok {
				continue
			}
			p, known := settings.LookupProperty(k)
			fmt.Fprintf(out, "%s  %-6s  %s\n",
				colorize(colorCyan, k),
				v.Kind,
				display(v.Text(), known && p.Encrypted, false),
			)
		}
		return nil
	},
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit the application's named settings",
}

var profileReveal bool

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show every named setting with its effective value",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openFacade()
		if err != nil {
			return err
		}
		printEntries(cmd.OutOrStdout(), f.Entries(profileReveal))
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <property> <value>",
	Short: "Set a named setting",
	Long: `Set a named setting. The property may be given by name or key.

Examples:
  appsettings profile set Username alice
  appsettings profile set Window.Width 1440
  appsettings profile set LastLoginDate 2025-06-01T09:00:00Z`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openFacade()
		if err != nil {
			return err
		}
		if err := f.SetProperty(args[0], args[1]); err != nil {
			return err
		}
		p, _ := settings.LookupProperty(args[0])
		printSuccess("Set %s = %s", p.Name, display(args[1], p.Encrypted, false))
		return nil
	},
}

var profileResetConfirm bool

var profileResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove every named setting so defaults apply",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !profileResetConfirm {
			printWarning("This will reset all named settings. Use --confirm to proceed.")
			return nil
		}
		f, err := openFacade()
		if err != nil {
			return err
		}
		n := f.Reset()
		printSuccess("Reset %d setting(s)", n)
		return nil
	},
}

func init() {
	profileShowCmd.Flags().BoolVar(&profileReveal, "reveal", false, "show encrypted values in clear text")
	profileResetCmd.Flags().BoolVar(&profileResetConfirm, "confirm", false, "confirm reset")
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileResetCmd)
}

func printEntries(w io.Writer, entries []settings.Entry) {
	for _, e := range entries {
		src := e.Source.String()
		switch e.Source {
		case settings.SourceStored:
			src = colorize(colorGreen, src)
		case settings.SourceFallback:
			src = colorize(colorYellow, src)
		}
		fmt.Fprintf(w, "  %-14s %s  (%s)\n", e.Name, e.Value, src)
	}
}

const maskedValue = "********"

// display masks secret values unless reveal is set.
func display(text string, secret, reveal bool) string {
	if secret && !reveal && text != "" {
		return maskedValue
	}
	return text
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "  %s %s\n", colorize(colorBold, "file:"), configFile())
		for _, k := range config.ShowAll(c) {
			fmt.Fprintf(out, "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.SetKey(configFile(), key, value); err != nil {
			return err
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// resetCommandState restores flag-bound globals between in-process runs.
func resetCommandState() {
	getType, getDefault, getEncrypted, getExplain = "string", "", false, false
	setType, setEncrypted = "string", false
	clearConfirm = false
	profileReveal = false
	profileResetConfirm = false
	noColor = false
	configPath = ""
}
