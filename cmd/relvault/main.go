package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"relvault/internal/app"
	"relvault/internal/config"
	"relvault/internal/history"
	"relvault/internal/model"
	"relvault/internal/release"
	"relvault/internal/store"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "AddProject", "DeleteVersion").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config (run 'relvault config init' first): %w", err)
	}

	a, err := app.New(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s id: %q", what, arg)
	}
	return id, nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// promptPassphrase reads a snapshot passphrase. An empty entry means
// the user backed out, reported as release.ErrCanceled.
func promptPassphrase() (string, error) {
	pw, err := promptPassword("Snapshot passphrase: ")
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", release.ErrCanceled
	}
	return pw, nil
}

// confirm asks a yes/no question on stdin. Anything but y/yes is a no.
func confirm(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

var rootCmd = &cobra.Command{
	Use:   "relvault",
	Short: "Project release and test record keeper",
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

		installID := uuid.New().String()
		cfg := config.NewConfig(installID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Install ID: %s\n", installID)
		fmt.Printf("Base Dir:   %s\n", defaults["base_dir"])
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
		fmt.Printf("Install ID: %s\n", cfg.InstallID)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Store:      %s (%s)\n", cfg.Store.Type, cfg.Store.Path)
		fmt.Printf("Vault:      %s (%s)\n", cfg.Vault.Type, cfg.Vault.Root)
		fmt.Printf("History:    %s (%s)\n", cfg.History.Type, cfg.History.DataDir)
		return nil
	},
}

// login / logout

var loginCmd = &cobra.Command{
	Use:   "login [USERNAME]",
	Short: "Log in as an administrator",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := "admin"
		if len(args) > 0 {
			username = args[0]
		}

		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			var err error
			password, err = promptPassword("Password: ")
			if err != nil {
				return err
			}
		}

		a, err := newApp("Login")
		if err != nil {
			return err
		}
		defer a.Close()

		a.RecordMutation(username)
		if err := a.Service().Login(username, password); err != nil {
			a.Fail()
			return err
		}

		fmt.Printf("Logged in as %s\n", username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Logout")
		if err != nil {
			return err
		}
		defer a.Close()

		a.RecordMutation("")
		if err := a.Service().Logout(); err != nil {
			a.Fail()
			return err
		}

		fmt.Println("Logged out")
		return nil
	},
}

// project command

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		a, err := newApp("AddProject")
		if err != nil {
			return err
		}
		defer a.Close()

		a.RecordMutation(args[0])
		p, err := a.Service().AddProject(args[0], description)
		if err != nil {
			a.Fail()
			return err
		}

		fmt.Printf("Added project #%d: %s\n", p.ID, p.Name)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListProjects")
		if err != nil {
			return err
		}
		defer a.Close()

		doc := a.Service().Document()
		if len(doc.Projects) == 0 {
			fmt.Println("No projects.")
			return nil
		}

		for _, p := range doc.Projects {
			fmt.Printf("#%-4d %-24s versions:%-3d tests:%-3d created:%s\n",
				p.ID, p.Name, len(p.Versions), len(p.TestRecords),
				p.CreatedAt.Format("2006-01-02"))
			if p.Description != "" {
				fmt.Printf("      %s\n", p.Description)
			}
		}
		return nil
	},
}

var projectUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Update a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "project")
		if err != nil {
			return err
		}

		var patch release.ProjectPatch
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			patch.Name = &name
		}
		if cmd.Flags().Changed("description") {
			description, _ := cmd.Flags().GetString("description")
			patch.Description = &description
		}

		a, err := newApp("UpdateProject")
		if err != nil {
			return err
		}
		defer a.Close()

		a.RecordMutation(args[0])
		if err := a.Service().UpdateProject(id, patch); err != nil {
			a.Fail()
			return err
		}

		fmt.Printf("Updated project #%d\n", id)
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a project and its stored files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "project")
		if err != nil {
			return err
		}

		a, err := newApp("DeleteProject")
		if err != nil {
			return err
		}
		defer a.Close()

		a.RecordMutation(args[0])
		if err := a.Service().DeleteProject(id); err != nil {
			a.Fail()
			return err
		}

		fmt.Printf("Deleted project #%d\n", id)
		return nil
	},
}

var projectExportCSVCmd = &cobra.Command{
	Use:   "export-csv ID",
	Short: "Export a project's versions as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "project")
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = fmt.Sprintf("backup_%s.csv", time.Now().Format("2006-01-02"))
		}

		a, err := newApp("ExportProjectCSV")
		if err != nil {
			return err
		}
		defer a.Close()

		csvText, err := a.Service().ExportProjectCSV(id)
		if err != nil {
			return err
		}
		if err := store.ExportCSV(csvText, out); err != nil {
			return err
		}

		fmt.Printf("Exported versions of project #%d to %s\n", id, out)
		return nil
	},
}

// version command

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Manage versions",
}

func versionFilesFromFlags(cmd *cobra.Command) release.VersionFiles {
	binary, _ := cmd.Flags().GetString("binary")
	configFile, _ := cmd.Flags().GetString("config-file")
	return release.VersionFiles{BinaryPath: binary, ConfigPath: configFile}
}

var versionAddCmd = &cobra.Command{
	Use:   "add PROJECT",
	Short: "Add a version to a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := parseID(args[0], "project")
		if err != nil {
			return err
		}

		label, _ := cmd.Flags().GetString("label")
		changelog, _ := cmd.Flags().GetString("changelog")

		fields := release.VersionFields{Version: label, Changelog: changelog}
		if buildTime, _ := cmd.Flags().GetString("build-time"); buildTime != "" {
			fields.BuildTime, err = model.ParseDate(buildTime)
			if err != nil {
				return err
			}
		}

		a, err := newApp("AddVersion")
		if err != nil {
			return err
		}
		defer a.Close()

		a.RecordMutation(fmt.Sprintf("%d %s", projectID, label))
		v, err := a.Service().AddVersion(projectID, fields, versionFilesFromFlags(cmd))
		if err != nil {
			a.Fail()
			return err
		}

		fmt.Printf("Added version #%d (%s) to project #%d\n", v.ID, v.Version, projectID)
		if v.BinaryFile != nil {
			fmt.Printf("  binary: %s (%d bytes, md5 %s)\n", v.BinaryFile.FileName, v.BinaryFile.FileSize, v.BinaryFile.MD5)
		}
		if v.ConfigFile != nil {
			fmt.Printf("  config: %s (%d bytes)\n", v.ConfigFile.FileName, v.ConfigFile.FileSize)
		}
		return nil
	},
}

var versionListCmd = &cobra.Command{
	Use:   "list PROJECT",
	Short: "List a project's versions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := parseID(args[0], "project")
		if err != nil {
			return err
		}

		a, err := newApp("ListVersions")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Service().FindProject(projectID)
		if err != nil {
			return err
		}

		if len(p.Versions) == 0 {
			fmt.Println("No versions.")
			return nil
		}
		for _, v := range p.Versions {
			fmt.Printf("#%-4d %-14s built:%-11s", v.ID, v.Version, v.BuildTime)
			if v.BinaryFile != nil {
				fmt.Printf("  md5:%s", v.BinaryFile.MD5)
			}
			fmt.Println()
			if v.Changelog != "" {
				fmt.Printf("      %s\n", v.Changelog)
			}
		}
		return nil
	},
}

var versionUpdateCmd = &cobra.Command{
	Use:   "update PROJECT VERSION",
	Short: "Update a version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := parseID(args[0], "project")
		if err != nil {
			return err
		}
		versionID, err := parseID(args[1], "version")
		if err != nil {
			return err
		}

		var patch release.VersionPatch
		if cmd.Flags().Changed("label") {
			label, _ := cmd.Flags().GetString("label")
			patch.Version = &label
		}
		if cmd.Flags().Changed("changelog") {
			changelog, _ := cmd.Flags().GetString("changelog")
			patch.Changelog = &changelog
		}
		if cmd.Flags().Changed("build-time") {
			buildTime, _ := cmd.Flags().GetString("build-time")
			date, err := model.ParseDate(buildTime)
			if err != nil {
				return err
			}
			patch.BuildTime = &date
		}

		a, err := newApp("UpdateVersion")
		if err != nil {
			return err
		}
		defer a.Close()

		a.RecordMutation(fmt.Sprintf("%d %d", projectID, versionID))
		if err := a.Service().UpdateVersion(projectID, versionID, patch, versionFilesFromFlags(cmd)); err != nil {
			a.Fail()
			return err
		}

		fmt.Printf("Updated version #%d of project #%d\n", versionID, projectID)
		return nil
	},
}

var versionDeleteCmd = &cobra.Command{
	Use:   "delete PROJECT VERSION",
	Short: "Delete a version and its stored files",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := parseID(args[0], "project")
		if err != nil {
			return err
		}
		versionID, err := parseID(args[1], "version")
		if err != nil {
			return err
		}

		a, err := newApp("DeleteVersion")
		if err != nil {
			return err
		}
		defer a.Close()

		a.RecordMutation(fmt.Sprintf("%d %d", projectID, versionID))
		if err := a.Service().DeleteVersion(projectID, versionID); err != nil {
			a.Fail()
			return err
		}

		fmt.Printf("Deleted version #%d of project #%d\n", versionID, projectID)
		return nil
	},
}

// test command

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Manage test records",
}

var testAddCmd = &cobra.Command{
	Use:   "add PROJECT",
	Short: "Add a test record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := parseID(args[0], "project")
		if err != nil {
			return err
		}

		tester, _ := cmd.Flags().GetString("tester")
		result, _ := cmd.Flags().GetString("result")
		notes, _ := cmd.Flags().GetString("notes")

		fields := release.TestRecordFields{Tester: tester, Notes: notes}
		switch result {
		case "pass":
			fields.Result = model.ResultPass
		case "fail":
			fields.Result = model.ResultFail
		default:
			return fmt.Errorf("result must be \"pass\" or \"fail\", got %q", result)
		}
		if date, _ := cmd.Flags().GetString("date"); date != "" {
			fields.TestDate, err = model.ParseDate(date)
			if err != nil {
				return err
			}
		}

		a, err := newApp("AddTestRecord")
		if err != nil {
			return err
		}
		defer a.Close()

		a.RecordMutation(fmt.Sprintf("%d %s", projectID, result))
		r, err := a.Service().AddTestRecord(projectID, fields)
		if err != nil {
			a.Fail()
			return err
		}

		fmt.Printf("Added test record #%d (%s, %s) to project #%d\n", r.ID, r.TestDate, r.Result, projectID)
		return nil
	},
}

var testListCmd = &cobra.Command{
	Use:   "list PROJECT",
	Short: "List a project's test records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := parseID(args[0], "project")
		if err != nil {
			return err
		}

		a, err := newApp("ListTestRecords")
		if err != nil {
			return err
		}
		defer a.Close()

		var records []model.TestRecord
		if month, _ := cmd.Flags().GetString("month"); month != "" {
			parsed, err := time.Parse("2006-01", month)
			if err != nil {
				return fmt.Errorf("invalid month %q (want YYYY-MM)", month)
			}
			records, err = a.Service().TestRecordsByMonth(projectID, parsed.Year(), parsed.Month())
			if err != nil {
				return err
			}
		} else {
			p, err := a.Service().FindProject(projectID)
			if err != nil {
				return err
			}
			records = p.TestRecords
		}

		if len(records) == 0 {
			fmt.Println("No test records.")
			return nil
		}

		// Group by date, calendar style.
		lastDate := ""
		for _, r := range records {
			if d := r.TestDate.String(); d != lastDate {
				fmt.Printf("%s\n", d)
				lastDate = d
			}
			fmt.Printf("  #%-4d %-6s %-16s %s\n", r.ID, r.Result, r.Tester, r.Notes)
		}
		return nil
	},
}

var testDeleteCmd = &cobra.Command{
	Use:   "delete PROJECT RECORD",
	Short: "Delete a test record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := parseID(args[0], "project")
		if err != nil {
			return err
		}
		recordID, err := parseID(args[1], "test record")
		if err != nil {
			return err
		}

		a, err := newApp("DeleteTestRecord")
		if err != nil {
			return err
		}
		defer a.Close()

		a.RecordMutation(fmt.Sprintf("%d %d", projectID, recordID))
		if err := a.Service().DeleteTestRecord(projectID, recordID); err != nil {
			a.Fail()
			return err
		}

		fmt.Printf("Deleted test record #%d of project #%d\n", recordID, projectID)
		return nil
	},
}

// file command

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Inspect stored files",
}

var fileInfoCmd = &cobra.Command{
	Use:   "info RELPATH",
	Short: "Show a stored file's name and size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("FileInfo")
		if err != nil {
			return err
		}
		defer a.Close()

		ref, err := a.Vault().Stat(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s  %d bytes  (%s)\n", ref.FileName, ref.FileSize, ref.RelativePath)
		return nil
	},
}

var fileOpenCmd = &cobra.Command{
	Use:   "open RELPATH",
	Short: "Open a stored file with the default application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("FileOpen")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Vault().Open(args[0])
	},
}

var fileRevealCmd = &cobra.Command{
	Use:   "reveal RELPATH",
	Short: "Open the folder containing a stored file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("FileReveal")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Vault().OpenFolder(args[0])
	},
}

// export / import

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full document as a JSON snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = fmt.Sprintf("backup_%s.json", time.Now().Format("2006-01-02"))
		}

		var passphrase string
		if encrypt, _ := cmd.Flags().GetBool("encrypt"); encrypt {
			var err error
			passphrase, err = promptPassphrase()
			if errors.Is(err, release.ErrCanceled) {
				fmt.Println("Export canceled.")
				return nil
			}
			if err != nil {
				return err
			}
			again, err := promptPassword("Confirm passphrase: ")
			if err != nil {
				return err
			}
			if again != passphrase {
				return errors.New("passphrases do not match")
			}
		}

		a, err := newApp("ExportSnapshot")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := store.ExportJSON(a.Service().Document(), out, passphrase); err != nil {
			return err
		}

		fmt.Printf("Exported snapshot to %s\n", out)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a JSON snapshot, replacing all data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm("Importing replaces all existing data. Continue?") {
			fmt.Println("Import canceled.")
			return nil
		}

		encrypted, err := store.IsEncrypted(args[0])
		if err != nil {
			return err
		}

		var passphrase string
		if encrypted {
			passphrase, err = promptPassphrase()
			if errors.Is(err, release.ErrCanceled) {
				fmt.Println("Import canceled.")
				return nil
			}
			if err != nil {
				return err
			}
		}

		doc, err := store.ImportJSON(args[0], passphrase)
		if err != nil {
			return err
		}

		a, err := newApp("ImportSnapshot")
		if err != nil {
			return err
		}
		defer a.Close()

		a.RecordMutation(args[0])
		if err := a.Service().ImportSnapshot(doc); err != nil {
			a.Fail()
			return err
		}

		fmt.Printf("Imported snapshot from %s (%d projects)\n", args[0], len(doc.Projects))
		return nil
	},
}

// history command

var historyCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the history database schema is up to date",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		if err := history.CheckSchema(cfg.History); err != nil {
			return err
		}
		fmt.Println("History database schema is up to date.")
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("GetHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-16s  %s  %-8s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
			)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// login
	loginCmd.Flags().String("password", "", "Password (prompted when omitted)")

	// project subcommands
	projectCmd.AddCommand(projectAddCmd)
	projectAddCmd.Flags().StringP("description", "d", "", "Project description")
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectUpdateCmd)
	projectUpdateCmd.Flags().String("name", "", "New project name")
	projectUpdateCmd.Flags().StringP("description", "d", "", "New project description")
	projectCmd.AddCommand(projectDeleteCmd)
	projectCmd.AddCommand(projectExportCSVCmd)
	projectExportCSVCmd.Flags().StringP("output", "o", "", "Output file (default backup_<date>.csv)")

	// version subcommands
	versionCmd.AddCommand(versionAddCmd)
	versionAddCmd.Flags().StringP("label", "v", "", "Version label, e.g. v1.0.0")
	versionAddCmd.Flags().StringP("build-time", "t", "", "Build date (YYYY-MM-DD)")
	versionAddCmd.Flags().StringP("changelog", "c", "", "Changelog text")
	versionAddCmd.Flags().String("binary", "", "Binary file to store")
	versionAddCmd.Flags().String("config-file", "", "Config file to store")
	versionCmd.AddCommand(versionListCmd)
	versionCmd.AddCommand(versionUpdateCmd)
	versionUpdateCmd.Flags().StringP("label", "v", "", "New version label")
	versionUpdateCmd.Flags().StringP("build-time", "t", "", "New build date (YYYY-MM-DD)")
	versionUpdateCmd.Flags().StringP("changelog", "c", "", "New changelog text")
	versionUpdateCmd.Flags().String("binary", "", "Replacement binary file to store")
	versionUpdateCmd.Flags().String("config-file", "", "Replacement config file to store")
	versionCmd.AddCommand(versionDeleteCmd)

	// test subcommands
	testCmd.AddCommand(testAddCmd)
	testAddCmd.Flags().String("tester", "", "Tester name")
	testAddCmd.Flags().String("result", "", "Result: pass or fail")
	testAddCmd.Flags().String("date", "", "Test date (YYYY-MM-DD, default today)")
	testAddCmd.Flags().String("notes", "", "Notes")
	testCmd.AddCommand(testListCmd)
	testListCmd.Flags().String("month", "", "Only records in this month (YYYY-MM)")
	testCmd.AddCommand(testDeleteCmd)

	// file subcommands
	fileCmd.AddCommand(fileInfoCmd)
	fileCmd.AddCommand(fileOpenCmd)
	fileCmd.AddCommand(fileRevealCmd)

	// export / import
	exportCmd.Flags().StringP("output", "o", "", "Output file (default backup_<date>.json)")
	exportCmd.Flags().Bool("encrypt", false, "Encrypt the snapshot with a passphrase")
	importCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")

	// history
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	historyCmd.AddCommand(historyCheckCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(historyCmd)
}
