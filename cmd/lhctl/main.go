package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/linkhubhq/linkhub/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	serverURL    string
	sessionToken string
	cfgFile      string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lhctl",
	Short: "LinkHub command-line client",
	Long: `lhctl is the command-line client for a LinkHub server.

It can register accounts, log in, manage your links, and read public
profiles. Login stores the session token in the config file so later
commands pick it up automatically.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.lhctl")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server_url")
		}
		if serverURL == "" {
			serverURL = "http://localhost:8080"
		}
		if sessionToken == "" {
			sessionToken = viper.GetString("session_token")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.lhctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "LinkHub server URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&sessionToken, "token", "", "session token (overrides the stored one)")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(linksCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(clickCmd)
	rootCmd.AddCommand(versionCmd)

	linksCmd.AddCommand(linksAddCmd)
	linksCmd.AddCommand(linksSetCmd)
	linksCmd.AddCommand(linksRmCmd)
}

func apiClient() *client.Client {
	opts := []client.Option{}
	if sessionToken != "" {
		opts = append(opts, client.WithSessionToken(sessionToken))
	}
	return client.New(serverURL, opts...)
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}

// saveSession persists the token under ~/.lhctl/config.yaml.
func saveSession(token string) error {
	viper.Set("server_url", serverURL)
	viper.Set("session_token", token)

	path := cfgFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dir := home + "/.lhctl"
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
		path = dir + "/config.yaml"
	}
	return viper.WriteConfigAs(path)
}

// ── register ─────────────────────────────────────────────────────────────────

var (
	registerDisplayName string
	registerBio         string
)

var registerCmd = &cobra.Command{
	Use:   "register <username> <email> <password>",
	Short: "Create a new LinkHub account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		req := client.RegisterRequest{Username: args[0], Email: args[1], Password: args[2]}
		if registerDisplayName != "" {
			req.DisplayName = &registerDisplayName
		}
		if registerBio != "" {
			req.Bio = &registerBio
		}

		result, err := apiClient().Register(ctx, req)
		if err != nil {
			return err
		}
		if err := saveSession(result.Token); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not save session: %v\n", err)
		}
		fmt.Printf("registered %s (id %d); page will be at /u/%s\n",
			result.User.Username, result.User.ID, result.User.Username)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerDisplayName, "display-name", "", "Display name for the public page")
	registerCmd.Flags().StringVar(&registerBio, "bio", "", "Short bio for the public page")
}

// ── login ────────────────────────────────────────────────────────────────────

var loginCmd = &cobra.Command{
	Use:   "login <email> <password>",
	Short: "Log in and store the session token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		result, err := apiClient().Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if err := saveSession(result.Token); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not save session: %v\n", err)
		}
		fmt.Printf("logged in as %s\n", result.User.Username)
		return nil
	},
}

// ── links ────────────────────────────────────────────────────────────────────

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "List and manage your links",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		list, err := apiClient().ListMyLinks(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPOS\tACTIVE\tCLICKS\tTITLE\tURL")
		for _, l := range list {
			fmt.Fprintf(w, "%d\t%d\t%v\t%d\t%s\t%s\n",
				l.ID, l.OrderIndex, l.IsActive, l.ClickCount, l.Title, l.URL)
		}
		return w.Flush()
	},
}

var (
	addIcon     string
	addPosition int
)

var linksAddCmd = &cobra.Command{
	Use:   "add <title> <url>",
	Short: "Add a link (appends unless --position is given)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		req := client.CreateLinkRequest{Title: args[0], URL: args[1]}
		if addIcon != "" {
			req.Icon = &addIcon
		}
		if cmd.Flags().Changed("position") {
			req.OrderIndex = &addPosition
		}

		l, err := apiClient().CreateLink(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("created link %d at position %d\n", l.ID, l.OrderIndex)
		return nil
	},
}

func init() {
	linksAddCmd.Flags().StringVar(&addIcon, "icon", "", "Icon (emoji or identifier)")
	linksAddCmd.Flags().IntVar(&addPosition, "position", 0, "Explicit display position")
}

var (
	setTitle     string
	setURL       string
	setIcon      string
	setClearIcon bool
	setActive    bool
	setPosition  int
)

var linksSetCmd = &cobra.Command{
	Use:   "set <id>",
	Short: "Update fields on a link; only changed flags are sent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid link id %q", args[0])
		}

		// Build a sparse patch: only flags the user actually set are sent,
		// so untouched fields keep their stored values.
		fields := map[string]any{}
		if cmd.Flags().Changed("title") {
			fields["title"] = setTitle
		}
		if cmd.Flags().Changed("url") {
			fields["url"] = setURL
		}
		if setClearIcon {
			fields["icon"] = nil
		} else if cmd.Flags().Changed("icon") {
			fields["icon"] = setIcon
		}
		if cmd.Flags().Changed("active") {
			fields["is_active"] = setActive
		}
		if cmd.Flags().Changed("position") {
			fields["order_index"] = setPosition
		}

		ctx, cancel := cmdContext()
		defer cancel()

		l, err := apiClient().UpdateLink(ctx, id, fields)
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(l, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	linksSetCmd.Flags().StringVar(&setTitle, "title", "", "New title")
	linksSetCmd.Flags().StringVar(&setURL, "url", "", "New destination URL")
	linksSetCmd.Flags().StringVar(&setIcon, "icon", "", "New icon")
	linksSetCmd.Flags().BoolVar(&setClearIcon, "clear-icon", false, "Clear the icon")
	linksSetCmd.Flags().BoolVar(&setActive, "active", true, "Whether the link is shown publicly")
	linksSetCmd.Flags().IntVar(&setPosition, "position", 0, "Display position")
}

var linksRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid link id %q", args[0])
		}

		ctx, cancel := cmdContext()
		defer cancel()

		if err := apiClient().DeleteLink(ctx, id); err != nil {
			return err
		}
		fmt.Printf("deleted link %d\n", id)
		return nil
	},
}

// ── profile / click / version ────────────────────────────────────────────────

var profileCmd = &cobra.Command{
	Use:   "profile <username>",
	Short: "Show a user's public profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		p, err := apiClient().GetPublicProfile(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("@%s", p.Username)
		if p.DisplayName != nil {
			fmt.Printf(" - %s", *p.DisplayName)
		}
		fmt.Println()
		if p.Bio != nil {
			fmt.Println(*p.Bio)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCLICKS\tTITLE\tURL")
		for _, l := range p.Links {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", l.ID, l.ClickCount, l.Title, l.URL)
		}
		return w.Flush()
	},
}

var clickCmd = &cobra.Command{
	Use:   "click <link-id>",
	Short: "Record a click on a link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid link id %q", args[0])
		}

		ctx, cancel := cmdContext()
		defer cancel()

		count, err := apiClient().TrackClick(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("click recorded; total %d\n", count)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the lhctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("lhctl", version)
	},
}
