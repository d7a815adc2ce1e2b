package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"video-toolbox/infrastructure/config"

	"github.com/spf13/cobra"
)

// DefaultOutput is the default output writer for config commands
var DefaultOutput OutputWriter = os.Stdout

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage email contacts and default CCs",
	Long: `Manage the contacts share links can be emailed to by name, and the
CC recipients added to every share email.

Examples:
  video-toolbox config list contacts
  video-toolbox config add contact --key jane --name "Jane Doe" --email jane@example.com
  video-toolbox config add cc --name "Mary Jones" --email mary@example.com
  video-toolbox config remove contact jane`,
}

func init() {
	rootCmd.AddCommand(configCmd)

	// Add subcommands
	configCmd.AddCommand(configAddCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configRemoveCmd)
	configCmd.AddCommand(configUpdateCmd)
}

func loadedConfig() (*config.Config, error) {
	c := GetConfig()
	if c == nil {
		return nil, fmt.Errorf("config file not found. Run 'video-toolbox setup' first")
	}
	return c, nil
}

// --- ADD command ---

var (
	addKey   string
	addName  string
	addEmail string
)

var configAddCmd = &cobra.Command{
	Use:   "add [contact|cc]",
	Short: "Add a new contact or CC",
	Long: `Add a new contact or default CC to the configuration.

CC entries are keyed by their lowercased first name.

Examples:
  video-toolbox config add contact --key jane --name "Jane Doe" --email "jane@example.com"
  video-toolbox config add cc --name "Mary Jones" --email "mary@example.com"`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigAdd,
}

func init() {
	configAddCmd.Flags().StringVar(&addKey, "key", "", "Unique key for the contact (required for contacts)")
	configAddCmd.Flags().StringVar(&addName, "name", "", "Display name (required)")
	configAddCmd.Flags().StringVar(&addEmail, "email", "", "Email address (required)")
	configAddCmd.MarkFlagRequired("name")
	configAddCmd.MarkFlagRequired("email")
}

func runConfigAdd(cmd *cobra.Command, args []string) error {
	c, err := loadedConfig()
	if err != nil {
		return err
	}

	return RunConfigAddWithDependencies(c, cfgFile, args[0], addKey, addName, addEmail, DefaultOutput)
}

// RunConfigAddWithDependencies runs the add command with injected dependencies
func RunConfigAddWithDependencies(cfg *config.Config, configPath, entityType, key, name, email string, out OutputWriter) error {
	mgr := config.NewContactManager(cfg, configPath)

	switch entityType {
	case "contact":
		if key == "" {
			return fmt.Errorf("--key is required for contacts")
		}
		if err := mgr.AddContact(key, name, email); err != nil {
			return err
		}
		fmt.Fprintf(out, "Added contact %q: %s <%s>\n", key, name, email)

	case "cc":
		if err := mgr.AddCC(name, email); err != nil {
			return err
		}
		fmt.Fprintf(out, "Added CC: %s <%s>\n", name, email)

	default:
		return fmt.Errorf("unknown entity type %q. Use contact or cc", entityType)
	}

	return nil
}

// --- LIST command ---

var configListCmd = &cobra.Command{
	Use:   "list [contacts|ccs]",
	Short: "List contacts or CCs",
	Long: `List all contacts or default CC recipients.

Examples:
  video-toolbox config list contacts
  video-toolbox config list ccs`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigList,
}

func runConfigList(cmd *cobra.Command, args []string) error {
	c, err := loadedConfig()
	if err != nil {
		return err
	}

	return RunConfigListWithDependencies(c, cfgFile, args[0], DefaultOutput)
}

// RunConfigListWithDependencies runs the list command with injected dependencies
func RunConfigListWithDependencies(cfg *config.Config, configPath, entityType string, out OutputWriter) error {
	mgr := config.NewContactManager(cfg, configPath)

	var entries []config.Contact
	switch entityType {
	case "contacts":
		entries = mgr.ListContacts()
	case "ccs":
		entries = mgr.ListCCs()
	default:
		return fmt.Errorf("unknown entity type %q. Use contacts or ccs", entityType)
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "No %s configured.\n", entityType)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tEMAIL")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Key, e.Name, e.Address)
	}
	return w.Flush()
}

// --- REMOVE command ---

var configRemoveCmd = &cobra.Command{
	Use:   "remove [contact|cc] <key>",
	Short: "Remove a contact or CC",
	Long: `Remove a contact or default CC from the configuration.

Examples:
  video-toolbox config remove contact jane
  video-toolbox config remove cc mary`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigRemove,
}

func runConfigRemove(cmd *cobra.Command, args []string) error {
	c, err := loadedConfig()
	if err != nil {
		return err
	}

	return RunConfigRemoveWithDependencies(c, cfgFile, args[0], args[1], DefaultOutput)
}

// RunConfigRemoveWithDependencies runs the remove command with injected dependencies
func RunConfigRemoveWithDependencies(cfg *config.Config, configPath, entityType, key string, out OutputWriter) error {
	mgr := config.NewContactManager(cfg, configPath)

	switch entityType {
	case "contact":
		if err := mgr.RemoveContact(key); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed contact %q\n", key)

	case "cc":
		if err := mgr.RemoveCC(key); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed CC %q\n", key)

	default:
		return fmt.Errorf("unknown entity type %q. Use contact or cc", entityType)
	}

	return nil
}

// --- UPDATE command ---

var (
	updateName  string
	updateEmail string
)

var configUpdateCmd = &cobra.Command{
	Use:   "update contact <key>",
	Short: "Update a contact",
	Long: `Update an existing contact's name or email. To change a CC, remove it
and add it again.

Examples:
  video-toolbox config update contact jane --email "jane.new@example.com"
  video-toolbox config update contact jane --name "Jane Smith"`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigUpdate,
}

func init() {
	configUpdateCmd.Flags().StringVar(&updateName, "name", "", "New display name")
	configUpdateCmd.Flags().StringVar(&updateEmail, "email", "", "New email address")
}

func runConfigUpdate(cmd *cobra.Command, args []string) error {
	c, err := loadedConfig()
	if err != nil {
		return err
	}

	if updateName == "" && updateEmail == "" {
		return fmt.Errorf("at least one of --name or --email is required")
	}

	return RunConfigUpdateWithDependencies(c, cfgFile, args[0], args[1], updateName, updateEmail, DefaultOutput)
}

// RunConfigUpdateWithDependencies runs the update command with injected dependencies
func RunConfigUpdateWithDependencies(cfg *config.Config, configPath, entityType, key, name, email string, out OutputWriter) error {
	if entityType != "contact" {
		return fmt.Errorf("unknown entity type %q. Only contacts can be updated", entityType)
	}

	mgr := config.NewContactManager(cfg, configPath)
	if err := mgr.UpdateContact(key, name, email); err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated contact %q\n", key)
	return nil
}
