package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hsiuhsiu/keychain-go/pkg/keychain"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var libraryPath string

	root := &cobra.Command{
		Use:           "keychain-go",
		Short:         "Read, write and delete credentials in the platform-native secret store",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if libraryPath == "" {
				return nil
			}
			return keychain.SetLibraryPath(libraryPath)
		},
	}
	root.PersistentFlags().StringVar(&libraryPath, "library", "",
		"explicit path to the native keychain library (skips auto-resolution)")

	root.AddCommand(newSetCommand(), newGetCommand(), newDeleteCommand())
	return root
}

func newSetCommand() *cobra.Command {
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "set <package> <service> <username>",
		Short: "Store a credential",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(passwordStdin)
			if err != nil {
				return err
			}
			return keychain.SetPassword(args[0], args[1], args[2], password)
		},
	}
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false,
		"read the password from stdin instead of prompting")
	return cmd
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <package> <service> <username>",
		Short: "Print a stored credential",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := keychain.GetPassword(args[0], args[1], args[2])
			if err != nil {
				if keychain.IsNotFound(err) {
					return fmt.Errorf("no credential for %s/%s/%s", args[0], args[1], args[2])
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), password)
			return nil
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <package> <service> <username>",
		Short: "Remove a stored credential",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return keychain.DeletePassword(args[0], args[1], args[2])
		},
	}
}

// readPassword prompts on a terminal without echo and falls back to reading
// one line from stdin for pipes and scripts.
func readPassword(forceStdin bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if !forceStdin && term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Password: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
