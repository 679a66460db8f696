// stepcore-host is an interactive terminal for the board's serial console.
// It forwards command lines to the board, echoes replies, and adds a few
// shortcuts for jogging an axis by hand.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"stepcore/console"
	"stepcore/host/serial"
)

var (
	device = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud   = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	axis   = flag.Int("axis", 0, "Axis used by the jog shortcuts")
	jogVel = flag.Int("jogvel", 1000, "Jog velocity in steps/s")
)

func main() {
	flag.Parse()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	fmt.Printf("Connecting to %s...\n", *device)
	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()
	fmt.Println("Connected. Type 'help' for commands, 'quit' to exit.")

	// Echo everything the board sends
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := port.Read(buf)
			if n > 0 {
				os.Stdout.Write(buf[:n])
			}
			if err != nil && err != io.EOF {
				return
			}
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "quit", "exit", "q":
			return
		case "help", "?":
			printHelp()
			continue
		case "+":
			line = fmt.Sprintf("jog %d %d", *axis, *jogVel)
		case "-":
			line = fmt.Sprintf("jog %d %d", *axis, -*jogVel)
		case ".":
			line = fmt.Sprintf("stop %d", *axis)
		}

		// Validate locally so typos fail fast instead of on the board
		if _, err := console.ParseLine(line); err != nil {
			fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
			continue
		}

		if _, err := port.Write([]byte(line + "\n")); err != nil {
			fmt.Fprintf(os.Stderr, "write error: %v\n", err)
			return
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("\nBoard commands (forwarded over serial):")
	fmt.Println("  move <axis> <steps> [abs|rel]  - Point-to-point move")
	fmt.Println("  jog <axis> <steps/s>           - Continuous velocity move")
	fmt.Println("  stop <axis>                    - Ramp to a standstill")
	fmt.Println("  stopat <axis> <position>       - Decelerate to a position")
	fmt.Println("  abrupt <axis>                  - Halt without ramping")
	fmt.Println("  vel/acc/dec/edec <axis> <v>    - Set motion limits")
	fmt.Println("  pos <axis> | status            - Query state")
	fmt.Println("  zero <axis> [value]            - Set position reference")
	fmt.Println("  enable/disable <axis>          - Axis power control")
	fmt.Println("  estop | clear                  - Fault latch")
	fmt.Println("  trace                          - Dump the motion event ring")
	fmt.Println("  wdt <ms>                       - Host watchdog (0 disarms)")
	fmt.Println("\nShortcuts:")
	fmt.Println("  +  jog forward    -  jog reverse    .  stop")
	fmt.Println("  quit/exit/q       - Exit the program")
	fmt.Println()
}
