package flags

import (
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/HexmosTech/reqkit/exchange"
	"github.com/HexmosTech/reqkit/input"
	"github.com/HexmosTech/reqkit/output"
	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt"
	"github.com/pkg/errors"
)

var reNumber = regexp.MustCompile(`^[0-9.]+$`)

// Usage prints the help text.
type Usage func(w io.Writer)

type OptionSet struct {
	InputOptions    input.Options
	ExchangeOptions exchange.Options
	OutputOptions   output.Options
	Verbose         bool
	PrintHelp       bool
	PrintVersion    bool
	PrintLicenses   bool
}

type terminalInfo struct {
	stdinIsTerminal  bool
	stdoutIsTerminal bool
}

// Parse parses the command line. It returns the positional arguments.
func Parse(args []string) ([]string, Usage, *OptionSet, error) {
	return parse(args, terminalInfo{
		stdinIsTerminal:  isatty.IsTerminal(os.Stdin.Fd()),
		stdoutIsTerminal: isatty.IsTerminal(os.Stdout.Fd()),
	})
}

func parse(args []string, terminal terminalInfo) ([]string, Usage, *OptionSet, error) {
	// Parse flags
	inputOptions := input.Options{}
	outputOptions := output.Options{}
	exchangeOptions := exchange.Options{}
	optionSet := &OptionSet{}
	var ignoreStdin bool
	var authFlag string
	var verifyFlag string
	var memoryThreshold string
	var timeout string
	var prettyFlag string
	printFlag := "\000" // "\000" is a special value that indicates user did not specified --print

	flagSet := getopt.New()
	flagSet.SetParameters("[METHOD] URL [REQUEST_ITEM [REQUEST_ITEM ...]]")
	flagSet.BoolVarLong(&inputOptions.JSON, "json", 'j', "data items are serialized as JSON (default)")
	flagSet.BoolVarLong(&inputOptions.Form, "form", 'f', "data items are serialized as form fields")
	flagSet.BoolVarLong(&inputOptions.Multipart, "multipart", 0, "data items are serialized as multipart/form-data")
	flagSet.BoolVarLong(&inputOptions.Plist, "plist", 0, "data items are serialized as an XML property list")
	flagSet.StringVarLong(&memoryThreshold, "memory-threshold", 0, "multipart bodies larger than this are written to disk (e.g. 10M)")
	flagSet.StringVarLong(&printFlag, "print", 'p', "specifies what the output should contain (HBhb)")
	flagSet.StringVarLong(&prettyFlag, "pretty", 0, "controls output processing (all, format, none)")
	flagSet.BoolVarLong(&ignoreStdin, "ignore-stdin", 0, "do not attempt to read stdin")
	flagSet.StringVarLong(&timeout, "timeout", 0, "timeout seconds that you allow the whole operation to take")
	flagSet.BoolVarLong(&exchangeOptions.FollowRedirects, "follow", 'F', "follow 30x Location redirects")
	flagSet.StringVarLong(&verifyFlag, "verify", 0, "verify the host's TLS certificate (yes, no)")
	flagSet.BoolVarLong(&exchangeOptions.ForceHTTP1, "http1", 0, "disable HTTP/2")
	flagSet.StringVarLong(&authFlag, "auth", 'a', "colon-separated username and password for authentication")
	flagSet.BoolVarLong(&outputOptions.Download, "download", 'd', "download the body to a file")
	flagSet.StringVarLong(&outputOptions.OutputFile, "output", 'o', "save the downloaded body to this file")
	flagSet.BoolVarLong(&outputOptions.Overwrite, "overwrite", 0, "overwrite an existing file when downloading")
	flagSet.StringVarLong(&outputOptions.ResumeFile, "continue", 'c', "resume an interrupted download from its .resume file")
	flagSet.BoolVarLong(&optionSet.Verbose, "verbose", 'v', "log what is sent and received to stderr")
	flagSet.BoolVarLong(&optionSet.PrintHelp, "help", 'h', "print this help")
	flagSet.BoolVarLong(&optionSet.PrintVersion, "version", 0, "print version and exit")
	flagSet.BoolVarLong(&optionSet.PrintLicenses, "licenses", 0, "print licenses of bundled software and exit")
	if err := flagSet.Getopt(args, nil); err != nil {
		return nil, nil, nil, newUsageError(err.Error())
	}

	// Check stdin
	if !ignoreStdin && !terminal.stdinIsTerminal {
		inputOptions.ReadStdin = true
	}

	// Parse --print
	if err := parsePrintFlag(printFlag, terminal.stdoutIsTerminal, &outputOptions); err != nil {
		return nil, nil, nil, err
	}

	// Parse --pretty
	if err := parsePrettyFlag(prettyFlag, terminal.stdoutIsTerminal, &outputOptions); err != nil {
		return nil, nil, nil, err
	}

	// Parse --timeout
	if timeout != "" {
		d, err := parseDurationOrSeconds(timeout)
		if err != nil {
			return nil, nil, nil, err
		}
		exchangeOptions.Timeout = d
	}

	// Parse --verify
	skipVerify, err := parseVerifyFlag(verifyFlag)
	if err != nil {
		return nil, nil, nil, err
	}
	exchangeOptions.SkipVerify = skipVerify

	// Parse --memory-threshold
	if memoryThreshold != "" {
		n, err := parseByteSize(memoryThreshold)
		if err != nil {
			return nil, nil, nil, err
		}
		exchangeOptions.MemoryThreshold = n
	}

	// Parse --auth
	if authFlag != "" {
		auth, err := parseAuth(authFlag)
		if err != nil {
			return nil, nil, nil, err
		}
		exchangeOptions.Auth = auth
	}

	if outputOptions.OutputFile != "" || outputOptions.ResumeFile != "" {
		outputOptions.Download = true
	}

	optionSet.InputOptions = inputOptions
	optionSet.ExchangeOptions = exchangeOptions
	optionSet.OutputOptions = outputOptions
	return flagSet.Args(), flagSet.PrintUsage, optionSet, nil
}

func parsePrintFlag(printFlag string, stdoutIsTerminal bool, outputOptions *output.Options) error {
	if printFlag == "\000" {
		// --print is not specified
		if stdoutIsTerminal {
			outputOptions.PrintResponseHeader = true
			outputOptions.PrintResponseBody = true
		} else {
			outputOptions.PrintResponseBody = true
		}
	} else {
		for _, c := range printFlag {
			switch c {
			case 'H':
				outputOptions.PrintRequestHeader = true
			case 'B':
				outputOptions.PrintRequestBody = true
			case 'h':
				outputOptions.PrintResponseHeader = true
			case 'b':
				outputOptions.PrintResponseBody = true
			default:
				return errors.Errorf("Invalid char in --print value (must be consist of HBhb): %c", c)
			}
		}
	}
	return nil
}

func parsePrettyFlag(prettyFlag string, stdoutIsTerminal bool, outputOptions *output.Options) error {
	switch prettyFlag {
	case "":
		outputOptions.EnableFormat = stdoutIsTerminal
		outputOptions.EnableColor = stdoutIsTerminal
	case "all":
		outputOptions.EnableFormat = true
		outputOptions.EnableColor = true
	case "format":
		outputOptions.EnableFormat = true
		outputOptions.EnableColor = false
	case "none":
		outputOptions.EnableFormat = false
		outputOptions.EnableColor = false
	default:
		return errors.Errorf("Value of --pretty must be one of all, format or none: %s", prettyFlag)
	}
	return nil
}

func parseDurationOrSeconds(timeout string) (time.Duration, error) {
	if reNumber.MatchString(timeout) {
		timeout += "s"
	}
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return time.Duration(0), errors.Errorf("Value of --timeout must be a number or duration string: %v", timeout)
	}
	return d, nil
}

func parseVerifyFlag(verifyFlag string) (skipVerify bool, err error) {
	switch strings.ToLower(verifyFlag) {
	case "", "yes", "true":
		return false, nil
	case "no", "false":
		return true, nil
	default:
		return false, errors.Errorf("Value of --verify must be yes or no: %s", verifyFlag)
	}
}

// parseByteSize accepts plain byte counts and sizes like 512K or 10M. A
// negative count sends every multipart body through disk.
func parseByteSize(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	n, err := bytefmt.ToBytes(s)
	if err != nil {
		return 0, errors.Errorf("Value of --memory-threshold must be a byte count or size like 10M: %s", s)
	}
	return int64(n), nil
}

func parseAuth(authFlag string) (exchange.AuthOptions, error) {
	colon := strings.Index(authFlag, ":")
	if colon != -1 {
		return exchange.AuthOptions{
			Enabled:  true,
			UserName: authFlag[:colon],
			Password: authFlag[colon+1:],
		}, nil
	}
	password, err := askPassword(authFlag)
	if err != nil {
		return exchange.AuthOptions{}, err
	}
	return exchange.AuthOptions{
		Enabled:  true,
		UserName: authFlag,
		Password: password,
	}, nil
}

func newUsageError(message string) error {
	u := input.UsageError(message)
	return errors.WithStack(&u)
}
