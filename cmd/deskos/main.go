package main

import (
	"fmt"
	"os"
	"strings"

	"deskos/internal/app"
	"deskos/internal/config"
	"deskos/internal/encryption"
	"deskos/internal/vfs"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a DeskApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "CreateItem", "DeleteItem").
func newApp(operation string) (*app.DeskApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewDeskApp(cfg, operation, promptPassphrase)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	if warning := a.LoadWarning(); warning != "" {
		fmt.Fprintln(os.Stderr, warning)
	}

	return a, nil
}

func promptPassphrase() (string, error) {
	fmt.Fprint(os.Stderr, "Passphrase: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

// resolveItem finds the item at the given virtual path.
func resolveItem(a *app.DeskApp, path string) (*vfs.Item, error) {
	item, ok := a.Repo().FindByPath(path)
	if !ok {
		return nil, fmt.Errorf("no such item: %s", path)
	}
	return item, nil
}

// splitParent splits a virtual path into the parent path and the final segment.
func splitParent(path string) (parentPath, name string) {
	normalized := vfs.NormalizePath(path)
	if normalized == "/" {
		return "/", ""
	}
	idx := strings.LastIndex(normalized, "/")
	if idx == 0 {
		return "/", normalized[1:]
	}
	return normalized[:idx], normalized[idx+1:]
}

func printItem(item *vfs.Item) {
	indicator := "f"
	size := int64(0)
	if item.IsFolder() {
		indicator = "d"
	} else if item.Metadata != nil {
		size = item.Metadata.Size
	}
	deleted := ""
	if item.Deleted() {
		deleted = "  [deleted]"
	}
	fmt.Printf("%s  %8d  %s%s\n", indicator, size, item.Name, deleted)
}

var rootCmd = &cobra.Command{
	Use:   "deskos",
	Short: "Virtual desktop filesystem",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Store:      %s\n", cfg.Store.Type)
		encType := cfg.Encryption.Type
		if encType == "" {
			encType = "none"
		}
		fmt.Printf("Encryption: %s\n", encType)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate an encryption keypair",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		if encryption.KeysExist(cfg.Encryption.PublicKeyPath, cfg.Encryption.PrivateKeyPath) {
			return fmt.Errorf("keys already exist at %s", cfg.Encryption.PrivateKeyPath)
		}

		passphrase, err := promptPassphrase()
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stderr, "Confirm passphrase: ")
		confirm, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("reading passphrase: %w", err)
		}
		if passphrase != string(confirm) {
			return fmt.Errorf("passphrases do not match")
		}

		if err := encryption.Setup(cfg.Encryption.PublicKeyPath, cfg.Encryption.PrivateKeyPath, passphrase); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}

		fmt.Printf("Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s\n", cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// ls command
var lsCmd = &cobra.Command{
	Use:   "ls [PATH]",
	Short: "List a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("List")
		if err != nil {
			return err
		}
		defer a.Close()

		target := "/"
		if len(args) > 0 {
			target = args[0]
		}

		items, err := a.Repo().List(target)
		if err != nil {
			return err
		}

		if len(items) == 0 {
			fmt.Println("Empty directory.")
			return nil
		}

		for _, item := range items {
			printItem(item)
		}
		return nil
	},
}

// tree command
var treeCmd = &cobra.Command{
	Use:   "tree [PATH]",
	Short: "Print the directory tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Tree")
		if err != nil {
			return err
		}
		defer a.Close()

		target := "/"
		if len(args) > 0 {
			target = args[0]
		}

		item, err := resolveItem(a, target)
		if err != nil {
			return err
		}

		fmt.Println(item.Path)
		return printTree(a, item, "")
	},
}

func printTree(a *app.DeskApp, folder *vfs.Item, prefix string) error {
	if !folder.IsFolder() {
		return nil
	}
	children, err := a.Repo().ListByParentID(folder.ID)
	if err != nil {
		return err
	}
	for i, child := range children {
		connector := "├── "
		childPrefix := prefix + "│   "
		if i == len(children)-1 {
			connector = "└── "
			childPrefix = prefix + "    "
		}
		fmt.Printf("%s%s%s\n", prefix, connector, child.Name)
		if child.IsFolder() {
			if err := printTree(a, child, childPrefix); err != nil {
				return err
			}
		}
	}
	return nil
}

// mkdir command
var mkdirCmd = &cobra.Command{
	Use:   "mkdir PATH",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("CreateFolder")
		if err != nil {
			return err
		}
		defer a.Close()

		parentPath, name := splitParent(args[0])
		item, err := a.Repo().CreateItem(vfs.CreateItemOptions{
			Type:       vfs.TypeFolder,
			Name:       name,
			ParentPath: parentPath,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created folder %s\n", item.Path)
		return nil
	},
}

// touch command
var touchCmd = &cobra.Command{
	Use:   "touch PATH",
	Short: "Create an empty file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("CreateFile")
		if err != nil {
			return err
		}
		defer a.Close()

		parentPath, name := splitParent(args[0])
		item, err := a.Repo().CreateItem(vfs.CreateItemOptions{
			Type:       vfs.TypeFile,
			Name:       name,
			ParentPath: parentPath,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created file %s\n", item.Path)
		return nil
	},
}

// cat command
var catCmd = &cobra.Command{
	Use:   "cat PATH",
	Short: "Print a file's content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ReadFile")
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := resolveItem(a, args[0])
		if err != nil {
			return err
		}

		content, err := a.Repo().ReadFile(item.ID)
		if err != nil {
			return err
		}

		fmt.Print(content)
		if !strings.HasSuffix(content, "\n") {
			fmt.Println()
		}
		return nil
	},
}

// write command
var writeCmd = &cobra.Command{
	Use:   "write PATH CONTENT",
	Short: "Write a file's content",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("WriteFile")
		if err != nil {
			return err
		}
		defer a.Close()

		item, ok := a.Repo().FindByPath(args[0])
		if !ok {
			parentPath, name := splitParent(args[0])
			item, err = a.Repo().CreateItem(vfs.CreateItemOptions{
				Type:       vfs.TypeFile,
				Name:       name,
				ParentPath: parentPath,
				Content:    args[1],
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created %s (%d bytes)\n", item.Path, item.Metadata.Size)
			return nil
		}

		item, err = a.Repo().WriteFile(item.ID, args[1])
		if err != nil {
			return err
		}

		fmt.Printf("Wrote %s (%d bytes)\n", item.Path, item.Metadata.Size)
		return nil
	},
}

// rm command
var rmCmd = &cobra.Command{
	Use:   "rm PATH",
	Short: "Move an item to the trash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hard, _ := cmd.Flags().GetBool("hard")

		a, err := newApp("DeleteItem")
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := resolveItem(a, args[0])
		if err != nil {
			return err
		}

		if err := a.Repo().DeleteItem(item.ID, !hard); err != nil {
			return err
		}

		if hard {
			fmt.Printf("Deleted %s\n", args[0])
		} else {
			fmt.Printf("Moved %s to trash\n", args[0])
		}
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore PATH [DESTINATION]",
	Short: "Restore an item from the trash",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RestoreItem")
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := resolveItem(a, args[0])
		if err != nil {
			return err
		}

		destination := ""
		if len(args) > 1 {
			destination = args[1]
		}

		restored, err := a.Repo().RestoreItem(item.ID, destination)
		if err != nil {
			return err
		}

		fmt.Printf("Restored to %s\n", restored.Path)
		return nil
	},
}

// mv command
var mvCmd = &cobra.Command{
	Use:   "mv SOURCE DESTINATION_FOLDER",
	Short: "Move an item into a folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("MoveItem")
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := resolveItem(a, args[0])
		if err != nil {
			return err
		}
		dest, err := resolveItem(a, args[1])
		if err != nil {
			return err
		}

		moved, err := a.Repo().MoveItem(item.ID, dest.ID)
		if err != nil {
			return err
		}

		fmt.Printf("Moved to %s\n", moved.Path)
		return nil
	},
}

// rename command
var renameCmd = &cobra.Command{
	Use:   "rename PATH NEW_NAME",
	Short: "Rename an item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RenameItem")
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := resolveItem(a, args[0])
		if err != nil {
			return err
		}

		renamed, err := a.Repo().RenameItem(item.ID, args[1])
		if err != nil {
			return err
		}

		fmt.Printf("Renamed to %s\n", renamed.Path)
		return nil
	},
}

// search command
var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search items by name or kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SearchItems")
		if err != nil {
			return err
		}
		defer a.Close()

		items := a.Explorer().SearchItems(args[0])
		if len(items) == 0 {
			fmt.Println("No matches.")
			return nil
		}

		for _, item := range items {
			fmt.Println(item.Path)
		}
		return nil
	},
}

// trash command
var trashCmd = &cobra.Command{
	Use:   "trash",
	Short: "List the trash contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListTrash")
		if err != nil {
			return err
		}
		defer a.Close()

		items, err := a.Repo().ListByParentID(a.Repo().TrashID())
		if err != nil {
			return err
		}

		if len(items) == 0 {
			fmt.Println("Trash is empty.")
			return nil
		}

		for _, item := range items {
			origin := ""
			if item.Metadata != nil && item.Metadata.LastParentPath != "" {
				origin = "  (from " + item.Metadata.LastParentPath + ")"
			}
			fmt.Printf("%s%s\n", item.Name, origin)
		}
		return nil
	},
}

// reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the filesystem to its default state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Reset")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Repo().Reset(); err != nil {
			return err
		}

		fmt.Println("Filesystem reset.")
		return nil
	},
}

// notes command
var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Manage notes",
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		archived, _ := cmd.Flags().GetBool("archived")

		a, err := newApp("ListNotes")
		if err != nil {
			return err
		}
		defer a.Close()

		list := a.Notes().Unarchived()
		if archived {
			list = a.Notes().Archived()
		}

		if len(list) == 0 {
			fmt.Println("No notes.")
			return nil
		}

		for _, n := range list {
			pin := " "
			if n.Pinned {
				pin = "*"
			}
			fmt.Printf("%s %s  %s\n", pin, n.ID, n.Title)
		}
		return nil
	},
}

var notesCreateCmd = &cobra.Command{
	Use:   "create TITLE",
	Short: "Create a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("CreateNote")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Notes().Create(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Created note %s\n", n.ID)
		return nil
	},
}

var notesImportCmd = &cobra.Command{
	Use:   "import PATH",
	Short: "Import a file from the filesystem as a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ImportNote")
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := resolveItem(a, args[0])
		if err != nil {
			return err
		}

		content, err := a.Repo().ReadFile(item.ID)
		if err != nil {
			return err
		}

		n, err := a.Notes().Import(content)
		if err != nil {
			return err
		}

		fmt.Printf("Imported note %s: %s\n", n.ID, n.Title)
		return nil
	},
}

var notesShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ShowNote")
		if err != nil {
			return err
		}
		defer a.Close()

		n, ok := a.Notes().Get(args[0])
		if !ok {
			return fmt.Errorf("no such note: %s", args[0])
		}

		fmt.Printf("# %s\n\n%s\n", n.Title, n.Content)
		return nil
	},
}

var notesPinCmd = &cobra.Command{
	Use:   "pin ID",
	Short: "Toggle a note's pinned state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("TogglePin")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Notes().TogglePin(args[0])
		if err != nil {
			return err
		}

		state := "unpinned"
		if n.Pinned {
			state = "pinned"
		}
		fmt.Printf("Note %s %s\n", n.ID, state)
		return nil
	},
}

var notesArchiveCmd = &cobra.Command{
	Use:   "archive ID",
	Short: "Toggle a note's archived state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ToggleArchive")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Notes().ToggleArchive(args[0])
		if err != nil {
			return err
		}

		state := "unarchived"
		if n.Archived {
			state = "archived"
		}
		fmt.Printf("Note %s %s\n", n.ID, state)
		return nil
	},
}

var notesRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DeleteNote")
		if err != nil {
			return err
		}
		defer a.Close()

		deleted, err := a.Notes().Delete(args[0])
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("no such note: %s", args[0])
		}

		fmt.Printf("Deleted note %s\n", args[0])
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)

	// notes subcommands
	notesCmd.AddCommand(notesListCmd)
	notesListCmd.Flags().BoolP("archived", "a", false, "List archived notes")
	notesCmd.AddCommand(notesCreateCmd)
	notesCmd.AddCommand(notesImportCmd)
	notesCmd.AddCommand(notesShowCmd)
	notesCmd.AddCommand(notesPinCmd)
	notesCmd.AddCommand(notesArchiveCmd)
	notesCmd.AddCommand(notesRmCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(touchCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(rmCmd)
	rmCmd.Flags().Bool("hard", false, "Permanently delete instead of trashing")
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(trashCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(notesCmd)
}
