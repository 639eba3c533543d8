package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gitsage/gitpick/internal/pkg/ai"
	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
	"github.com/gitsage/gitpick/internal/pkg/security"
)

// keyStore is replaced in tests.
var keyStore security.KeyStore = security.NewKeyringStore()

// NewKeyCmd manages API keys in the OS keychain.
func NewKeyCmd() *cobra.Command {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Store or remove provider API keys in the OS keychain",
		Long: `Keys stored here are used when neither provider.api_key nor
GITPICK_PROVIDER_API_KEY / OPENAI_API_KEY is set.`,
	}
	keyCmd.PersistentFlags().String("provider", ai.ProviderNameOpenAI, "Provider the key belongs to")

	keyCmd.AddCommand(&cobra.Command{
		Use:   "set [key]",
		Short: "Store an API key; reads it from stdin when not given",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runKeySet,
	})
	keyCmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, _ := cmd.Flags().GetString("provider")
			if err := keyStore.Delete(provider); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s API key from the keychain\n", provider)
			return nil
		},
	})
	return keyCmd
}

func runKeySet(cmd *cobra.Command, args []string) error {
	provider, _ := cmd.Flags().GetString("provider")
	if !security.RequiresAPIKey(provider) {
		return apperrors.New(apperrors.ErrInvalidArguments, provider+" does not use an API key")
	}

	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		read, err := readSecret(cmd)
		if err != nil {
			return err
		}
		key = read
	}
	key = strings.TrimSpace(key)
	if err := security.ValidateAPIKeyFormat(provider, key); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInvalidArguments, "rejected API key")
	}

	if err := keyStore.Set(provider, key); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %s API key %s in the keychain\n", provider, apperrors.MaskAPIKey(key))
	return nil
}

// readSecret reads one line from stdin without echo when stdin is a terminal.
func readSecret(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "API key: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", apperrors.NewTerminalError(err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", apperrors.Wrap(err, apperrors.ErrInvalidArguments, "no API key on stdin")
	}
	return line, nil
}
