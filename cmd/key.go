package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bitxelroads/btrd/internal/ui"
	"github.com/bitxelroads/btrd/internal/wallet"
)

var (
	keyName string
	keyYes  bool
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the deployer key in the OS keychain",
	Long: `Store the deployer's private key in the OS keychain so PRIVATE_KEY does not
have to live in .env. PRIVATE_KEY still wins when it is set.

On machines without a keychain service the key is kept in an encrypted file
under ~/.btrd/keys, unlocked with BTRD_KEYRING_PASSWORD or a prompt.`,
}

var keySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store a private key (read from stdin)",
	Long: `Read a hex private key from stdin and store it in the keychain.

Examples:
  btrd key set                       # paste the key, then Enter
  pass show base/deployer | btrd key set --name deployer`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := keyNameOrDefault()
		fmt.Fprintf(cmd.ErrOrStderr(), "Private key for %q: ", name)
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return errors.New("no private key given on stdin")
		}
		hexKey := strings.TrimSpace(line)

		signer, err := wallet.NewSigner(hexKey)
		if err != nil {
			return err
		}
		ks, err := openKeystore()
		if err != nil {
			return err
		}
		ref, err := ks.Store(name, hexKey)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Stored key %q for %s", ref, ui.Addr(signer.Address().Hex()))))
		return nil
	},
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the address of the key btrd will sign with",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		source := "PRIVATE_KEY"
		if cfg.PrivateKey == "" {
			source = "keychain " + wallet.KeyRef(keyNameOrDefault())
		}

		var signer *wallet.Signer
		var err error
		if cfg.PrivateKey != "" {
			signer, err = wallet.NewSigner(cfg.PrivateKey)
		} else {
			var ks wallet.KeySource
			if ks, err = openKeystore(); err == nil {
				signer, err = wallet.ResolveSigner("", ks, keyNameOrDefault())
			}
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Signer", [][2]string{
			{"Address", ui.Addr(signer.Address().Hex())},
			{"Source", source},
		}))
		return nil
	},
}

var keyRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Delete the stored key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := keyNameOrDefault()
		if !keyYes && !ui.Confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Delete key %q from the keychain?", name)) {
			return errors.New("aborted")
		}
		ks, err := openKeystore()
		if err != nil {
			return err
		}
		if err := ks.Delete(name); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Removed key %q", name)))
		return nil
	},
}

func keyNameOrDefault() string {
	if keyName != "" {
		return keyName
	}
	return cfg.KeyName
}

func init() {
	keyCmd.PersistentFlags().StringVar(&keyName, "name", "", "key name (default: key_name from config)")
	keyRemoveCmd.Flags().BoolVarP(&keyYes, "yes", "y", false, "do not ask for confirmation")
	keyCmd.AddCommand(keySetCmd, keyShowCmd, keyRemoveCmd)
}
