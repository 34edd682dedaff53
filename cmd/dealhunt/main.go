package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/fx"

	"github.com/dealhunt/dealhunt-go/internal/api"
	"github.com/dealhunt/dealhunt-go/internal/auth"
	"github.com/dealhunt/dealhunt-go/internal/auth/flow"
	"github.com/dealhunt/dealhunt-go/internal/config"
	"github.com/dealhunt/dealhunt-go/internal/logger"
	"github.com/dealhunt/dealhunt-go/internal/provider"
	"github.com/dealhunt/dealhunt-go/internal/requester"
	"github.com/dealhunt/dealhunt-go/internal/session"
	"github.com/dealhunt/dealhunt-go/internal/storage"
)

func main() {
	Execute()
}

var (
	loginEmail    string
	loginPassword string
	loginProvider string
	signupName    string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dealhunt",
	Short: "Dealhunt storefront client",
	Long: `Dealhunt is the command-line client for the Dealhunt deals platform.
It manages your sign-in session and browses stores, deals, and orders.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags()
	rootCmd.PersistentFlags().AddFlagSet(pflag.CommandLine)
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
	loginCmd.Flags().StringVar(&loginProvider, "provider", "", "OAuth provider (google|facebook)")

	signupCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	signupCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
	signupCmd.Flags().StringVar(&signupName, "name", "", "Display name")

	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, whoamiCmd, refreshCmd, providersCmd, dealsCmd)
}

// app bundles the dependencies the commands use.
type app struct {
	Controller *auth.Controller
	Service    *auth.Service
	API        *api.Client
}

// withApp builds the dependency graph, starts it, and runs fn.
func withApp(fn func(ctx context.Context, a *app) error) error {
	a := &app{}

	fxApp := fx.New(
		fx.NopLogger,
		config.Module,
		storage.Module,
		session.Module,
		provider.Module,
		flow.Module,
		auth.Module,
		requester.Module,
		api.Module,
		fx.Invoke(func(cfg *config.LoggingConfig) error {
			return logger.InitLogger(cfg)
		}),
		fx.Populate(&a.Controller, &a.Service, &a.API),
	)

	ctx := context.Background()
	if err := fxApp.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = fxApp.Stop(ctx)
		_ = logger.Sync()
	}()

	return fn(ctx, a)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email credentials or an OAuth provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			switch loginProvider {
			case "":
				if loginEmail == "" || loginPassword == "" {
					return fmt.Errorf("either --provider or both --email and --password are required")
				}
				established, err := a.Controller.SignInWithEmail(ctx, loginEmail, loginPassword)
				if err != nil {
					return err
				}
				pterm.Success.Printfln("Signed in as %s", established.User.Email)
			case "google":
				pterm.Info.Println("Complete the sign-in in your browser...")
				established, err := a.Controller.SignInWithGoogle(ctx)
				if err != nil {
					return err
				}
				pterm.Success.Printfln("Signed in as %s", established.User.Email)
			case "facebook":
				pterm.Info.Println("Complete the sign-in in your browser...")
				established, err := a.Controller.SignInWithFacebook(ctx)
				if err != nil {
					return err
				}
				pterm.Success.Printfln("Signed in as %s", established.User.Email)
			default:
				return fmt.Errorf("unknown provider: %s", loginProvider)
			}
			return nil
		})
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if loginEmail == "" || loginPassword == "" {
				return fmt.Errorf("--email and --password are required")
			}

			var metadata map[string]any
			if signupName != "" {
				metadata = map[string]any{"full_name": signupName}
			}

			established, err := a.Controller.SignUpWithEmail(ctx, loginEmail, loginPassword, metadata)
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Account created for %s", established.User.Email)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			a.Controller.SignOut(ctx)
			pterm.Success.Println("Signed out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			state := a.Controller.Snapshot(ctx)
			if !state.IsAuthenticated() {
				pterm.Warning.Println("Not signed in")
				return nil
			}

			rows := pterm.TableData{
				{"ID", state.User.ID},
				{"Email", state.User.Email},
			}
			if state.User.Name != "" {
				rows = append(rows, []string{"Name", state.User.Name})
			}
			return pterm.DefaultTable.WithData(rows).Render()
		})
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Renew the session's access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			refreshed := a.Controller.RefreshToken(ctx)
			if refreshed == nil {
				pterm.Warning.Println("Session expired, please sign in again")
				return nil
			}
			pterm.Success.Println("Session renewed")
			return nil
		})
	},
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List available OAuth providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			for _, info := range a.Service.Providers() {
				pterm.Info.Printfln("%s (%s)", info.DisplayName, info.Name)
			}
			return nil
		})
	},
}

var dealsCmd = &cobra.Command{
	Use:   "deals [query]",
	Short: "Browse current deals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			filter := api.ProductFilter{}
			if len(args) > 0 {
				filter.Query = args[0]
			}

			list, err := a.API.Products(ctx, filter)
			if err != nil {
				return err
			}

			rows := pterm.TableData{{"Title", "Price", "Discount"}}
			for _, product := range list.Items {
				rows = append(rows, []string{
					product.Title,
					fmt.Sprintf("%.2f", product.Price),
					fmt.Sprintf("%d%%", product.Discount),
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		})
	},
}
