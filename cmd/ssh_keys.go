package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"lambdacloud/internal/logging"
	sshkeys "lambdacloud/internal/ssh"
	"lambdacloud/pkg/lambdacloud"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	publicKeyFile    string
	generateLocal    bool
	forgetPrivateKey bool
)

var sshKeysCmd = &cobra.Command{
	Use:     "ssh-keys",
	Aliases: []string{"ssh-key", "keys"},
	Short:   "Manage SSH keys",
}

var sshKeysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List SSH keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := client.ListSSHKeys(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list SSH keys: %w", err)
		}
		return printSSHKeys(keys)
	},
}

var sshKeysAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an SSH key",
	Long: `Add an SSH key to the account.

With --public-key-file the given public key is uploaded. With --generate-local
an ed25519 key pair is generated locally and its public half is uploaded.
Without either flag the API generates the key pair. Private keys are saved to
the configured key store because the API returns them only once.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		req := lambdacloud.AddSSHKeyRequest{Name: name}

		// Any private key is returned only once, so the name must be storable before the key exists remotely
		if publicKeyFile == "" {
			if err := sshkeys.ValidateKeyName(name); err != nil {
				return fmt.Errorf("cannot save a private key under %q: %w", name, err)
			}
		}

		var local *sshkeys.KeyPair
		switch {
		case publicKeyFile != "":
			data, err := os.ReadFile(publicKeyFile)
			if err != nil {
				return fmt.Errorf("failed to read public key: %w", err)
			}
			req.PublicKey = strings.TrimSpace(string(data))
			if err := sshkeys.ValidatePublicKey(req.PublicKey); err != nil {
				return err
			}
		case generateLocal:
			pair, err := sshkeys.GenerateKeyPair(name)
			if err != nil {
				return err
			}
			local = pair
			req.PublicKey = pair.PublicKey
		}

		logging.Logger().Debug("Adding SSH key",
			zap.String("name", name),
			zap.String("public_key", logging.TruncateN(req.PublicKey, 64)))

		added, err := client.AddSSHKey(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to add SSH key %s: %w", name, err)
		}

		privateKey := ""
		if local != nil {
			privateKey = local.PrivateKey
		}
		if generated, ok := added.(lambdacloud.GeneratedSSHKey); ok {
			privateKey = generated.PrivateKey
		}
		if privateKey != "" {
			store := sshkeys.NewKeyStore(cfg.KeyStore)
			defer store.Close()
			if err := store.Save(cmd.Context(), name, privateKey); err != nil {
				fmt.Fprint(formatter.Writer(), privateKey)
				return fmt.Errorf("SSH key %s was added but its private key could not be saved, it was printed instead: %w", name, err)
			}
			logging.Logger().Info("Private key saved", zap.String("name", name))
		}

		return printSSHKeys([]lambdacloud.SSHKey{added.Key()})
	},
}

var sshKeysDeleteCmd = &cobra.Command{
	Use:   "delete <key-id>",
	Short: "Delete an SSH key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		var name string
		if forgetPrivateKey {
			keys, err := client.ListSSHKeys(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list SSH keys: %w", err)
			}
			key, ok := lo.Find(keys, func(k lambdacloud.SSHKey) bool { return k.ID == id })
			if !ok {
				return fmt.Errorf("SSH key %s not found", id)
			}
			name = key.Name
		}

		if err := client.DeleteSSHKey(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete SSH key %s: %w", id, err)
		}
		logging.Logger().Info("SSH key deleted", zap.String("id", id))

		if name != "" {
			store := sshkeys.NewKeyStore(cfg.KeyStore)
			defer store.Close()
			if err := store.Delete(cmd.Context(), name); err != nil && !errors.Is(err, sshkeys.ErrKeyNotFound) {
				return fmt.Errorf("failed to remove private key %s: %w", name, err)
			}
		}
		return nil
	},
}

var sshKeysPrivateCmd = &cobra.Command{
	Use:   "private-key <name>",
	Short: "Print a private key saved by add",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := sshkeys.NewKeyStore(cfg.KeyStore)
		defer store.Close()

		key, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(formatter.Writer(), key)
		return err
	},
}

func printSSHKeys(keys []lambdacloud.SSHKey) error {
	if !formatter.IsText() {
		return formatter.Output(keys)
	}
	rows := lo.Map(keys, func(k lambdacloud.SSHKey, _ int) []string {
		fingerprint, err := sshkeys.Fingerprint(k.PublicKey)
		if err != nil {
			fingerprint = "-"
		}
		return []string{k.ID, k.Name, fingerprint}
	})
	return formatter.Table([]string{"ID", "NAME", "FINGERPRINT"}, rows)
}

func init() {
	rootCmd.AddCommand(sshKeysCmd)
	sshKeysCmd.AddCommand(sshKeysListCmd, sshKeysAddCmd, sshKeysDeleteCmd, sshKeysPrivateCmd)

	sshKeysAddCmd.Flags().StringVar(&publicKeyFile, "public-key-file", "", "Path to an existing public key to upload")
	sshKeysAddCmd.Flags().BoolVar(&generateLocal, "generate-local", false, "Generate the key pair locally")
	sshKeysAddCmd.MarkFlagsMutuallyExclusive("public-key-file", "generate-local")

	sshKeysDeleteCmd.Flags().BoolVar(&forgetPrivateKey, "forget-private-key", false, "Also remove the saved private key")
}
