package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"syntagma/pkg/utils"

	"github.com/spf13/cobra"
)

// NewTOTPSecretCommand 生成管理后台二次验证密钥
func NewTOTPSecretCommand() *cobra.Command {
	var (
		issuer  string
		account string
	)

	cmd := &cobra.Command{
		Use:   "totp-secret",
		Short: "Generate a TOTP secret for the admin second factor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, url, err := utils.GenerateTOTPSecret(issuer, account)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "secret: %s\n", secret)
			fmt.Fprintf(out, "url:    %s\n", url)
			fmt.Fprintln(out, "set auth.totp_secret (or SYNTAGMA_AUTH_TOTP_SECRET) to the secret above")
			return nil
		},
	}

	cmd.Flags().StringVar(&issuer, "issuer", "syntagma", "issuer shown in the authenticator app")
	cmd.Flags().StringVar(&account, "account", "admin", "account name shown in the authenticator app")
	return cmd
}

// NewHashPasswordCommand 生成管理员密码的 bcrypt 哈希，未传参时从标准输入读取
func NewHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Hash an admin password with bcrypt",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password must not be empty")
			}

			hash, err := utils.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
