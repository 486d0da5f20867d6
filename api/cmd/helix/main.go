// Command helix hides text in images from the shell, using the same
// pipeline as the API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/irgordon/helix/api/internal/core/domain"
	"github.com/irgordon/helix/api/internal/core/metrics"
	"github.com/irgordon/helix/api/internal/core/services"
	"github.com/irgordon/helix/api/internal/core/stego"
	"github.com/irgordon/helix/api/internal/db/memory"
	"github.com/irgordon/helix/api/internal/infrastructure/crypto"
)

const usage = "Expected 'hide', 'reveal', 'keygen', 'compare' or 'info' subcommand"

var errUsage = errors.New(usage)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}

	switch args[0] {
	case "hide":
		return handleHide(ctx, args[1:], out)
	case "reveal":
		return handleReveal(ctx, args[1:], out)
	case "keygen":
		return handleKeygen(out)
	case "compare":
		return handleCompare(args[1:], out)
	case "info":
		return handleInfo(args[1:], out)
	default:
		return errUsage
	}
}

// newService builds a throwaway service: the CLI keeps no history.
func newService(opts ...stego.Option) *services.StegoService {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return services.NewStegoService(
		crypto.NewCipher,
		crypto.NewDecryptCipher,
		stego.New(opts...),
		memory.NewHistoryRepository(),
		nil,
		logger,
	)
}

func cipherFlags(cmd *flag.FlagSet) *domain.CipherOptions {
	opts := &domain.CipherOptions{}
	cmd.BoolVar(&opts.UseAES, "aes", false, "Encrypt with AES-256-CBC before DNA encoding")
	cmd.StringVar(&opts.KeyBase64, "key", "", "Base64 AES key (32 bytes)")
	cmd.StringVar(&opts.Passphrase, "passphrase", "", "Passphrase to derive the AES key from")
	return opts
}

func handleHide(ctx context.Context, args []string, out io.Writer) error {
	cmd := flag.NewFlagSet("hide", flag.ContinueOnError)
	text := cmd.String("t", "", "Text to hide")
	imgPath := cmd.String("i", "", "Path to cover image")
	outPath := cmd.String("o", "output.png", "Path to write the stego PNG")
	opts := cipherFlags(cmd)
	if err := cmd.Parse(args); err != nil {
		return err
	}

	if *text == "" || *imgPath == "" {
		return errors.New("-t and -i are required")
	}

	cover, err := loadRaster(*imgPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Cover %dx%d holds up to %d characters.\n", cover.Width, cover.Height, stego.Capacity(cover))

	res, err := newService().EncodeMessage(ctx, cover, *text, *opts)
	if err != nil {
		return err
	}

	if err := saveRaster(*outPath, res.Stego); err != nil {
		return err
	}

	fmt.Fprintf(out, "DNA length: %d nucleotides\n", res.Encryption.DNALength)
	fmt.Fprintf(out, "Embedded %d bits in %.4fs\n", res.Embedding.BinarySize, res.Embedding.EmbeddingTime)
	if res.Quality != nil {
		fmt.Fprintf(out, "PSNR: %s  SSIM: %.6f\n", formatPSNR(res.Quality.PSNR), res.Quality.SSIM)
	}
	if res.KeyBase64 != "" && opts.KeyBase64 == "" && opts.Passphrase == "" {
		fmt.Fprintln(out, "Generated AES key (keep it safe):", res.KeyBase64)
	}
	fmt.Fprintln(out, "Wrote", *outPath)
	return nil
}

func handleReveal(ctx context.Context, args []string, out io.Writer) error {
	cmd := flag.NewFlagSet("reveal", flag.ContinueOnError)
	imgPath := cmd.String("i", "", "Path to stego image")
	strict := cmd.Bool("strict", false, "Fail when no end marker is present")
	bitwise := cmd.Bool("bitwise", false, "Accept the end marker at any bit offset (images from older encoders)")
	opts := cipherFlags(cmd)
	if err := cmd.Parse(args); err != nil {
		return err
	}

	if *imgPath == "" {
		return errors.New("-i is required")
	}

	img, err := loadRaster(*imgPath)
	if err != nil {
		return err
	}

	res, err := newService(stego.WithStrictMarker(*strict), stego.WithBitwiseScan(*bitwise)).DecodeMessage(ctx, img, *opts)
	if err != nil {
		return err
	}

	if !res.Extraction.MarkerFound {
		fmt.Fprintln(out, "Warning: no end marker found, decoded the whole image.")
	}
	fmt.Fprintln(out, "Hidden Message:", res.Decryption.DecryptedText)
	return nil
}

func handleKeygen(out io.Writer) error {
	key, err := newService().GenerateKey()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, key)
	return nil
}

func handleCompare(args []string, out io.Writer) error {
	cmd := flag.NewFlagSet("compare", flag.ContinueOnError)
	aPath := cmd.String("a", "", "Original image")
	bPath := cmd.String("b", "", "Stego image")
	heatmapPath := cmd.String("heatmap", "", "Optional path for a difference heatmap PNG")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	if *aPath == "" || *bPath == "" {
		return errors.New("-a and -b are required")
	}

	a, err := loadRaster(*aPath)
	if err != nil {
		return err
	}
	b, err := loadRaster(*bPath)
	if err != nil {
		return err
	}

	report, err := metrics.Compare(a, b)
	if err != nil {
		return err
	}

	if report.Resized {
		fmt.Fprintln(out, "Note: second image was resized to match the first.")
	}
	fmt.Fprintf(out, "PSNR: %s\n", formatPSNR(report.PSNR))
	fmt.Fprintf(out, "SSIM: %.6f\n", report.SSIM)
	fmt.Fprintf(out, "Changed bytes: %d  Changed pixels: %d  Max |diff|: %d  Mean |diff|: %.6f\n",
		report.Diff.ChangedBytes, report.Diff.ChangedPixels, report.Diff.MaxAbsDiff, report.Diff.MeanAbsDiff)

	if *heatmapPath != "" {
		if report.Resized {
			b = metrics.Resize(b, a.Width, a.Height)
		}
		f, err := os.Create(*heatmapPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := png.Encode(f, metrics.Heatmap(a, b)); err != nil {
			return err
		}
		fmt.Fprintln(out, "Wrote", *heatmapPath)
	}
	return nil
}

func handleInfo(args []string, out io.Writer) error {
	cmd := flag.NewFlagSet("info", flag.ContinueOnError)
	imgPath := cmd.String("i", "", "Path to image")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *imgPath == "" {
		return errors.New("-i is required")
	}

	f, err := os.Open(*imgPath)
	if err != nil {
		return err
	}
	defer f.Close()

	img, format, err := stego.DecodeImage(f)
	if err != nil {
		return err
	}
	info := metrics.Info(img, format)
	fmt.Fprintf(out, "%dx%d %s (%s), capacity %d characters\n", info.Width, info.Height, info.Mode, info.Format, info.Capacity)
	return nil
}

func loadRaster(path string) (*stego.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, _, err := stego.DecodeRaster(f)
	return r, err
}

func saveRaster(path string, r *stego.Raster) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := stego.EncodePNG(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatPSNR(v float64) string {
	if math.IsInf(v, 1) {
		return "inf dB"
	}
	return fmt.Sprintf("%.2f dB", v)
}
