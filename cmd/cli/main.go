package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/krish567366/PesaQR/pkg/config"
	"github.com/krish567366/PesaQR/pkg/crc16"
	"github.com/krish567366/PesaQR/pkg/emvqr"
	"github.com/krish567366/PesaQR/pkg/emvqr/profile"
	"github.com/krish567366/PesaQR/pkg/psp"
	"github.com/krish567366/PesaQR/pkg/testutil"
)

var (
	version = "1.0.0"
	logger  *zap.Logger
)

func main() {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	rootCmd := &cobra.Command{
		Use:   "pesaqr",
		Short: "PesaQR - East African merchant QR payload codec CLI",
		Long:  `Command-line interface for decoding, encoding and inspecting merchant-presented QR payment payloads`,
	}

	rootCmd.AddCommand(
		versionCmd(),
		decodeCmd(),
		encodeCmd(),
		checksumCmd(),
		providersCmd(),
		generateCmd(),
		batchCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("PesaQR CLI v%s\n", version)
			fmt.Println("Build Date:", time.Now().Format("2006-01-02"))
		},
	}
}

// newCodec wires a decoder/encoder pair over the seeded directory plus
// any config-supplied provider entries.
func newCodec(configFile string) (*emvqr.Decoder, *emvqr.Encoder, *psp.Directory, error) {
	dir := psp.NewDirectory(logger)

	if configFile != "" {
		manager := config.NewManager(configFile, logger)
		if err := manager.Load(); err != nil {
			return nil, nil, nil, err
		}
		if err := manager.SeedDirectory(dir); err != nil {
			return nil, nil, nil, err
		}
	}

	profiles := profile.Registry(dir, logger)
	return emvqr.NewDecoder(profiles, logger), emvqr.NewEncoder(profiles, logger), dir, nil
}

func decodeCmd() *cobra.Command {
	var (
		configFile string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "decode [payload]",
		Short: "Decode a QR payload",
		Long:  `Decode and validate a merchant-presented QR payload. Reads from stdin when no argument is given.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := payloadArg(args)
			if err != nil {
				return err
			}

			decoder, _, _, err := newCodec(configFile)
			if err != nil {
				return err
			}

			decoded, err := decoder.Decode(payload)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(decoded)
			}
			printPayload(decoded)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "f", "", "Config file with extra provider entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the decoded payload as JSON")

	return cmd
}

func encodeCmd() *cobra.Command {
	var (
		configFile    string
		requestFile   string
		country       string
		kind          string
		participant   string
		account       string
		recipientName string
		recipientID   string
		mcc           string
		amountStr     string
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a QR payload",
		Long:  `Build a merchant-presented QR payload from a JSON request file or from flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req emvqr.Request

			if requestFile != "" {
				data, err := os.ReadFile(requestFile)
				if err != nil {
					return fmt.Errorf("failed to read request file: %w", err)
				}
				if err := json.Unmarshal(data, &req); err != nil {
					return fmt.Errorf("failed to parse request file: %w", err)
				}
			} else {
				parsedKind, ok := psp.ParseKind(kind)
				if !ok {
					return fmt.Errorf("unknown provider kind %q", kind)
				}
				req = emvqr.Request{
					Country:              psp.Country(country),
					MerchantCategoryCode: mcc,
					RecipientName:        recipientName,
					RecipientIdentifier:  recipientID,
					Templates: []emvqr.TemplateRequest{
						{Kind: parsedKind, ParticipantID: participant, AccountID: account},
					},
				}
				if amountStr != "" {
					amount, err := decimal.NewFromString(amountStr)
					if err != nil {
						return fmt.Errorf("invalid amount %q: %w", amountStr, err)
					}
					req.Amount = &amount
					req.InitiationMethod = emvqr.InitiationDynamic
				}
			}

			_, encoder, _, err := newCodec(configFile)
			if err != nil {
				return err
			}

			payload, err := encoder.Encode(&req)
			if err != nil {
				return err
			}

			fmt.Println(payload)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "f", "", "Config file with extra provider entries")
	cmd.Flags().StringVarP(&requestFile, "request", "r", "", "JSON request file (overrides other flags)")
	cmd.Flags().StringVar(&country, "country", "KE", "Country code (KE, TZ)")
	cmd.Flags().StringVar(&kind, "kind", "mobile_money", "Provider kind (bank, mobile_money, payment_gateway, unified)")
	cmd.Flags().StringVar(&participant, "participant", "", "Participant identifier (MSISDN or settlement code)")
	cmd.Flags().StringVar(&account, "account", "", "Account identifier")
	cmd.Flags().StringVar(&recipientName, "name", "", "Recipient or merchant name")
	cmd.Flags().StringVar(&recipientID, "city", "", "Merchant city or recipient identifier")
	cmd.Flags().StringVar(&mcc, "mcc", "0601", "Merchant category code")
	cmd.Flags().StringVarP(&amountStr, "amount", "a", "", "Transaction amount (switches to dynamic initiation)")

	return cmd
}

func checksumCmd() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "checksum [payload]",
		Short: "Compute or verify a payload checksum",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := payloadArg(args)
			if err != nil {
				return err
			}

			if verify {
				if len(payload) < 8 {
					return fmt.Errorf("payload too short to carry a checksum")
				}
				prefix, expected := payload[:len(payload)-4], payload[len(payload)-4:]
				if crc16.Matches(prefix, expected) {
					fmt.Println("checksum OK")
					return nil
				}
				fmt.Printf("checksum mismatch: payload carries %s, computed %s\n",
					expected, crc16.ComputeChecksum(prefix))
				os.Exit(1)
				return nil
			}

			fmt.Println(crc16.ComputeChecksum(payload + emvqr.TagChecksum + "04"))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verify, "verify", "v", false, "Verify the trailing 4 hex digits instead of computing")

	return cmd
}

func providersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Inspect the provider directory",
	}

	cmd.AddCommand(providersListCmd(), providersLookupCmd())

	return cmd
}

func providersListCmd() *cobra.Command {
	var (
		configFile string
		country    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered providers for a country",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, dir, err := newCodec(configFile)
			if err != nil {
				return err
			}

			records := dir.Providers(psp.Country(country))
			if len(records) == 0 {
				fmt.Printf("no providers registered for %s\n", country)
				return nil
			}

			for _, rec := range records {
				fmt.Printf("%-16s %-8s %s\n", rec.Kind, rec.Identifier, rec.DisplayName)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "f", "", "Config file with extra provider entries")
	cmd.Flags().StringVar(&country, "country", "KE", "Country code (KE, TZ)")

	return cmd
}

func providersLookupCmd() *cobra.Command {
	var (
		configFile string
		country    string
	)

	cmd := &cobra.Command{
		Use:   "lookup <identifier>",
		Short: "Resolve an identifier through the prefix index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, dir, err := newCodec(configFile)
			if err != nil {
				return err
			}

			rec, ok := dir.LookupByPrefix(psp.Country(country), args[0])
			if !ok {
				fmt.Printf("no provider matches %q in %s\n", args[0], country)
				os.Exit(1)
				return nil
			}

			fmt.Printf("Provider:   %s\n", rec.DisplayName)
			fmt.Printf("Kind:       %s\n", rec.Kind)
			fmt.Printf("Identifier: %s\n", rec.Identifier)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "f", "", "Config file with extra provider entries")
	cmd.Flags().StringVar(&country, "country", "KE", "Country code (KE, TZ)")

	return cmd
}

func generateCmd() *cobra.Command {
	var (
		country string
		count   int
		dynamic bool
		seed    int64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate synthetic test payloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, encoder, _, err := newCodec("")
			if err != nil {
				return err
			}

			generator := testutil.NewGenerator(seed)
			for i := 0; i < count; i++ {
				var req *emvqr.Request
				if dynamic && psp.Country(country) == psp.CountryKenya {
					req = generator.GenerateKenyaDynamicRequest()
				} else {
					req, err = generator.GenerateRequest(psp.Country(country))
					if err != nil {
						return err
					}
				}

				payload, err := encoder.Encode(req)
				if err != nil {
					return err
				}
				fmt.Println(payload)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&country, "country", "KE", "Country code (KE, TZ)")
	cmd.Flags().IntVarP(&count, "count", "c", 1, "Number of payloads to generate")
	cmd.Flags().BoolVar(&dynamic, "dynamic", false, "Embed a random amount (dynamic initiation)")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "Random seed")

	return cmd
}

func batchCmd() *cobra.Command {
	var (
		configFile string
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Decode a file of payloads, one per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			decoder, _, _, err := newCodec(configFile)
			if err != nil {
				return err
			}

			var payloads []string
			scanner := bufio.NewScanner(file)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line != "" {
					payloads = append(payloads, line)
				}
			}
			if err := scanner.Err(); err != nil {
				return err
			}

			var decoded, failed atomic.Int64
			start := time.Now()

			var group errgroup.Group
			group.SetLimit(workers)
			for i, payload := range payloads {
				i, payload := i, payload
				group.Go(func() error {
					if _, err := decoder.Decode(payload); err != nil {
						failed.Add(1)
						logger.Warn("decode failed",
							zap.Int("line", i+1),
							zap.Error(err))
						return nil
					}
					decoded.Add(1)
					return nil
				})
			}
			if err := group.Wait(); err != nil {
				return err
			}

			fmt.Printf("decoded %d/%d payloads in %s (%d failed)\n",
				decoded.Load(), len(payloads), time.Since(start).Round(time.Millisecond), failed.Load())
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "f", "", "Config file with extra provider entries")
	cmd.Flags().IntVarP(&workers, "workers", "w", 8, "Number of concurrent decoders")

	return cmd
}

func payloadArg(args []string) (string, error) {
	if len(args) == 1 {
		return strings.TrimSpace(args[0]), nil
	}

	data, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && data == "" {
		return "", fmt.Errorf("no payload on stdin: %w", err)
	}
	return strings.TrimSpace(data), nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printPayload(p *emvqr.Payload) {
	fmt.Printf("Country:        %s\n", p.Country)
	fmt.Printf("Initiation:     %s\n", initiationLabel(p.InitiationMethod))
	fmt.Printf("Classification: %s\n", p.Classification)
	if p.RecipientName != "" {
		fmt.Printf("Recipient:      %s\n", p.RecipientName)
	}
	if p.RecipientIdentifier != "" {
		fmt.Printf("City/ID:        %s\n", p.RecipientIdentifier)
	}
	if p.MerchantCategoryCode != "" {
		fmt.Printf("MCC:            %s\n", p.MerchantCategoryCode)
	}
	if p.Amount != nil {
		fmt.Printf("Amount:         %s (currency %s)\n", p.Amount.String(), p.CurrencyCode)
	}

	for i, t := range p.AccountTemplates {
		fmt.Printf("Template %d (tag %s):\n", i+1, t.Tag)
		if t.PSP != nil {
			fmt.Printf("  Provider:    %s (%s)\n", t.PSP.DisplayName, t.PSP.Kind)
		}
		if t.ParticipantID != "" {
			fmt.Printf("  Participant: %s\n", t.ParticipantID)
		}
		if t.AccountID != "" {
			fmt.Printf("  Account:     %s\n", t.AccountID)
		}
	}
}

func initiationLabel(m emvqr.InitiationMethod) string {
	if m == emvqr.InitiationDynamic {
		return "dynamic"
	}
	return "static"
}
