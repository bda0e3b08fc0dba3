package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"hostpanel/internal/auth"
	"hostpanel/internal/conf"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage panel users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <name> [password]",
	Short: "Add a user or reset its password",
	Long: `Store a bcrypt hash of the password in the config file. Adding the first
user turns on login for the dashboard pages.

When the password argument is omitted it is read from the first line of stdin.

Examples:
  hostpanel user add admin s3cret
  echo s3cret | hostpanel user add admin`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := ""
		if len(args) == 2 {
			password = args[1]
		} else {
			line, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			password = line
		}
		if err := conf.LoadConfig(configPath); err != nil {
			return fmt.Errorf("failed to load config %s: %w", configPath, err)
		}
		if err := auth.NewUser(args[0], password); err != nil {
			return err
		}
		cmd.Printf("user %s saved to %s\n", args[0], configPath)
		return nil
	},
}

func init() {
	userCmd.AddCommand(userAddCmd)
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
