package main

import (
	"fmt"
	"os"
	"strings"

	"gensavor/cmd/dispatchdisplay"
	"gensavor/cmd/kitchendisplay"
	"gensavor/cmd/orderservice"
	"gensavor/cmd/trackingservice"
)

func main() {
	mode, rest := splitMode(os.Args[1:])
	if mode == "" {
		printUsage()
		os.Exit(1)
	}

	// Each service parses its own flags from whatever is left.
	os.Args = append(os.Args[:1], rest...)

	switch mode {
	case "order-service":
		orderservice.Main()
	case "tracking-service":
		trackingservice.Main()
	case "kitchen-display":
		kitchendisplay.Main()
	case "dispatch-display":
		dispatchdisplay.Main()
	default:
		fmt.Printf("Invalid mode: %s\n", mode)
		printUsage()
		os.Exit(1)
	}
}

// splitMode pulls --mode (either form) out of the argument list and
// returns the remaining arguments untouched.
func splitMode(args []string) (string, []string) {
	var mode string
	var rest []string
	for i := 0; i < len(args); i++ {
		switch {
		case strings.HasPrefix(args[i], "--mode="):
			mode = strings.TrimPrefix(args[i], "--mode=")
		case args[i] == "--mode" && i+1 < len(args):
			i++
			mode = args[i]
		default:
			rest = append(rest, args[i])
		}
	}
	return mode, rest
}

func printUsage() {
	fmt.Println("Usage: gensavor --mode=<service-mode> [service-specific-flags]")
	fmt.Println("Available modes:")
	fmt.Println("  order-service --port=3000")
	fmt.Println("  tracking-service --port=3002")
	fmt.Println("  kitchen-display")
	fmt.Println("  dispatch-display")
}
