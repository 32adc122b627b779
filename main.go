// Package reqkit implements the rk command.
package reqkit

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path"

	"github.com/HexmosTech/reqkit/download"
	"github.com/HexmosTech/reqkit/exchange"
	"github.com/HexmosTech/reqkit/flags"
	"github.com/HexmosTech/reqkit/input"
	"github.com/HexmosTech/reqkit/logging"
	"github.com/HexmosTech/reqkit/output"
	"github.com/HexmosTech/reqkit/request"
	"github.com/HexmosTech/reqkit/version"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

func Main() error {
	// Parse flags
	args, usage, optionSet, err := flags.Parse(os.Args)
	if err != nil {
		return err
	}
	switch {
	case optionSet.PrintHelp:
		usage(os.Stdout)
		return nil
	case optionSet.PrintVersion:
		fmt.Printf("reqkit %s\n", version.Current())
		return nil
	case optionSet.PrintLicenses:
		version.PrintLicenses(os.Stdout)
		return nil
	}

	logConfig := logging.DefaultConfig()
	if optionSet.Verbose {
		logConfig = logging.VerboseConfig()
	}
	logConfig.Color = isatty.IsTerminal(os.Stderr.Fd())
	logger, err := logging.New(logConfig)
	if err != nil {
		return err
	}
	defer logger.Sync()

	config, err := exchange.LoadConfig()
	if err != nil {
		return err
	}
	config = optionSet.ExchangeOptions.Apply(config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outputOptions := optionSet.OutputOptions
	managerOptions := []exchange.Option{exchange.WithLogger(logger)}
	var progress *output.Progress
	if outputOptions.Download {
		progress = output.NewProgress(os.Stderr)
		managerOptions = append(managerOptions, exchange.WithProgress(progress.Update))
	}
	manager := exchange.NewManager(config, managerOptions...)

	if outputOptions.ResumeFile != "" {
		return resumeDownload(ctx, manager, &outputOptions, progress, logger)
	}

	// Parse positional arguments
	in, err := input.ParseArgs(args, os.Stdin, &optionSet.InputOptions)
	if input.IsUsageError(err) {
		usage(os.Stderr)
		return err
	}
	if err != nil {
		return err
	}

	prepared, err := manager.BuildInput(in, optionSet.ExchangeOptions.Auth)
	if err != nil {
		return err
	}
	defer prepared.Cleanup()

	writer := bufio.NewWriter(os.Stdout)
	defer writer.Flush()
	printer := output.NewPrinter(writer, &outputOptions)

	if outputOptions.PrintRequestHeader || outputOptions.PrintRequestBody {
		if err := printRequest(ctx, writer, printer, prepared.Request, &outputOptions); err != nil {
			return err
		}
		writer.Flush()
	}

	if outputOptions.Download {
		result, err := manager.Download(ctx, prepared.Request, destinationOf(&outputOptions, config.DownloadDir))
		return finishDownload(result, err, resumeFileFor(&outputOptions, prepared.Request.URL), progress, logger)
	}

	// Send request and receive response
	resp, err := manager.Send(ctx, prepared)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return printResponse(printer, writer, resp, &outputOptions)
}

func printRequest(ctx context.Context, w io.Writer, printer output.Printer, req *request.Request, options *output.Options) error {
	if options.PrintRequestHeader {
		hr, err := req.HTTPRequest(ctx)
		if err != nil {
			return err
		}
		if hr.Body != nil {
			hr.Body.Close()
		}
		if err := printer.PrintRequestLine(hr); err != nil {
			return err
		}
		header := hr.Header.Clone()
		if header.Get("Host") == "" {
			header.Set("Host", hr.URL.Host)
		}
		if err := printer.PrintHeader(header); err != nil {
			return err
		}
	}
	if options.PrintRequestBody {
		body, err := request.ReadAll(req.Body)
		if err != nil {
			return err
		}
		if err := printer.PrintBody(bytes.NewReader(body), req.ContentType()); err != nil {
			return err
		}
		if len(body) > 0 {
			fmt.Fprint(w, "\n\n")
		}
	}
	return nil
}

func printResponse(printer output.Printer, writer *bufio.Writer, resp *http.Response, options *output.Options) error {
	if options.PrintResponseHeader {
		if err := printer.PrintStatusLine(resp.Proto, resp.Status, resp.StatusCode); err != nil {
			return err
		}
		if err := printer.PrintHeader(resp.Header); err != nil {
			return err
		}
		writer.Flush()
	}
	if options.PrintResponseBody {
		if err := printer.PrintBody(resp.Body, resp.Header.Get("Content-Type")); err != nil {
			return err
		}
	} else {
		// drain so that the connection can be reused
		io.Copy(io.Discard, resp.Body)
	}
	return nil
}

func resumeDownload(ctx context.Context, manager *exchange.Manager, options *output.Options, progress *output.Progress, logger *zap.Logger) error {
	data, err := download.LoadResumeData(options.ResumeFile)
	if err != nil {
		return err
	}
	result, err := download.Resume(ctx, manager, data, destinationOf(options, manager.Config().DownloadDir))
	if err == nil {
		if err := os.Remove(options.ResumeFile); err != nil {
			logger.Warn("failed to remove resume data", zap.String("path", options.ResumeFile), zap.Error(err))
		}
	}
	return finishDownload(result, err, options.ResumeFile, progress, logger)
}

func finishDownload(result *download.Result, err error, resumeFile string, progress *output.Progress, logger *zap.Logger) error {
	if data, ok := exchange.ResumeDataOf(err); ok {
		if saveErr := data.Save(resumeFile); saveErr != nil {
			logger.Error("failed to save resume data", zap.String("path", resumeFile), zap.Error(saveErr))
			return err
		}
		progress.Interrupted(resumeFile)
		return err
	}
	if err != nil {
		return err
	}

	var received int64
	if info, statErr := os.Stat(result.Path); statErr == nil {
		received = info.Size()
	}
	progress.Finish(result.Path, received)
	return nil
}

// destinationOf maps the download flags to a destination. Without --output
// the file is named after the response and never replaces an existing one
// unless --overwrite is given.
func destinationOf(options *output.Options, dir string) download.Destination {
	if options.OutputFile != "" {
		return download.To(options.OutputFile, download.Options{
			RemovePreviousFile:            options.Overwrite,
			CreateIntermediateDirectories: true,
		})
	}
	return download.SuggestedDestination(dir, download.Options{
		RemovePreviousFile: options.Overwrite,
		UniqueFilename:     !options.Overwrite,
	})
}

func resumeFileFor(options *output.Options, rawurl string) string {
	if options.ResumeFile != "" {
		return options.ResumeFile
	}
	if options.OutputFile != "" {
		return options.OutputFile + ".resume"
	}
	name := "download"
	if u, err := url.Parse(rawurl); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			name = base
		}
	}
	return name + ".resume"
}
