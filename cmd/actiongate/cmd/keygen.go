package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/actiongate/actiongate/internal/domain/identity"
)

var keygenArgon2id bool

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a namespace credential (UUID + secret)",
	Long: `Generate a fresh namespace credential.

Prints a key UUID, the plaintext secret (hand it to the namespace owner),
and the secret hash to store in the seed file or database. By default the
hash is SHA256; pass --argon2id for an Argon2id hash.

Example:
  actiongate keygen
  actiongate keygen --argon2id

Security note: the plaintext secret is shown once and never stored.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			return fmt.Errorf("failed to generate secret: %w", err)
		}
		secret := hex.EncodeToString(secretBytes)

		hash := identity.HashSecret(secret)
		if keygenArgon2id {
			var err error
			hash, err = identity.HashSecretArgon2id(secret)
			if err != nil {
				return fmt.Errorf("failed to hash secret: %w", err)
			}
		}

		fmt.Printf("uuid:        %s\n", uuid.NewString())
		fmt.Printf("secret:      %s\n", secret)
		fmt.Printf("secret_hash: %s\n", hash)
		return nil
	},
}

func init() {
	keygenCmd.Flags().BoolVar(&keygenArgon2id, "argon2id", false, "Hash the secret with Argon2id instead of SHA256")
	rootCmd.AddCommand(keygenCmd)
}
