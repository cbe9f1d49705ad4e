package main

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/artpar/hoops/adapters/random"
	"github.com/artpar/hoops/domain/oauth1"
	"github.com/artpar/hoops/ports"
	"github.com/spf13/cobra"
)

var signCmd = &cobra.Command{
	Use:   "sign <url>",
	Short: "Sign a request with OAuth 1.0a (HMAC-SHA1)",
	Long: `Print a signed version of a request URL.

By default the protocol parameters are added to the query string. With
--header they are printed as an Authorization header instead.

Examples:
  curl "$(hoops sign --key=ck --secret=cs http://localhost:8080/notes)"
  hoops sign --key=ck --secret=cs --method=DELETE --header http://localhost:8080/notes/1`,
	Args: cobra.ExactArgs(1),
	RunE: runSign,
}

var (
	signClient oauth1.Client
	signMethod string
	signHeader bool

	signNow    = time.Now
	signRandom ports.Random = random.Real{}
)

func init() {
	rootCmd.AddCommand(signCmd)

	signCmd.Flags().StringVar(&signClient.ConsumerKey, "key", "", "consumer key (required)")
	signCmd.Flags().StringVar(&signClient.ConsumerSecret, "secret", "", "consumer secret (required)")
	signCmd.Flags().StringVar(&signClient.Token, "token", "", "token")
	signCmd.Flags().StringVar(&signClient.TokenSecret, "token-secret", "", "token secret")
	signCmd.Flags().StringVarP(&signMethod, "method", "X", "GET", "HTTP method")
	signCmd.Flags().BoolVar(&signHeader, "header", false, "print an Authorization header instead of a signed URL")
	signCmd.MarkFlagRequired("key")
	signCmd.MarkFlagRequired("secret")
}

func runSign(cmd *cobra.Command, args []string) error {
	u, err := url.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid url %q: scheme and host are required", args[0])
	}

	nonce, err := random.Nonce(signRandom)
	if err != nil {
		return err
	}

	method := strings.ToUpper(signMethod)
	out := cmd.OutOrStdout()
	if signHeader {
		params := signClient.Sign(method, u, nil, nonce, signNow())
		fmt.Fprintf(out, "Authorization: %s\n", oauth1.FormatHeader(params))
		return nil
	}

	fmt.Fprintln(out, signClient.SignedURL(method, u, nonce, signNow()).String())
	return nil
}
