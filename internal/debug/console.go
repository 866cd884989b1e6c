package debug

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Versifine/kinematic/internal/controller"
	"github.com/Versifine/kinematic/internal/world"
	"github.com/jakecoffman/cp/v2"
	"golang.org/x/term"
)

const (
	defaultTickInterval = 20 * time.Millisecond
	maxStepCommand      = 1000
)

type Console struct {
	world        *world.World
	input        *controller.PulseInput
	player       string
	out          io.Writer
	tickInterval time.Duration

	mu          sync.Mutex
	commandMode bool
	commandBuf  []rune
	statusWidth int
}

// NewConsole drives the named body through input. Output goes to stdout when
// out is nil.
func NewConsole(w *world.World, input *controller.PulseInput, player string, out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{
		world:        w,
		input:        input,
		player:       player,
		out:          out,
		tickInterval: defaultTickInterval,
	}
}

func (c *Console) Start(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("console is nil")
	}
	if c.world == nil {
		return fmt.Errorf("console world is nil")
	}
	if c.input == nil {
		return fmt.Errorf("console input is nil")
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set terminal raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		fmt.Fprint(c.out, "\r\n")
	}()

	fmt.Fprint(c.out, "[debug] console started (A/D pulse, Space jump, arrows, X clear, : command, Ctrl-C quit)\r\n")
	c.renderStatusLine()

	go c.tickLoop(ctx)

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		b, err := reader.ReadByte()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read console input: %w", err)
		}
		if b == 3 { // Ctrl-C in raw mode
			return nil
		}
		c.handleKey(reader, b)
	}
}

func (c *Console) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.world.Advance(now.Sub(last))
			last = now
			c.renderStatusLine()
		}
	}
}

func (c *Console) handleKey(reader *bufio.Reader, b byte) {
	if c.isCommandMode() {
		c.handleCommandByte(b)
		return
	}

	switch b {
	case ':':
		c.enterCommandMode()
		return
	case 'a', 'A':
		c.input.PulseLeft()
	case 'd', 'D':
		c.input.PulseRight()
	case ' ', 'w', 'W':
		c.input.PressJump()
	case 'x', 'X':
		c.input.Clear()
	case 27: // ESC + arrow sequence
		next, err := reader.ReadByte()
		if err != nil || next != '[' {
			return
		}
		arrow, err := reader.ReadByte()
		if err != nil {
			return
		}
		switch arrow {
		case 'D': // left
			c.input.PulseLeft()
		case 'C': // right
			c.input.PulseRight()
		case 'A': // up
			c.input.PressJump()
		case 'B': // down
			c.input.ReleaseJump()
		}
	}
	c.renderStatusLine()
}

func (c *Console) enterCommandMode() {
	c.mu.Lock()
	c.commandMode = true
	c.commandBuf = c.commandBuf[:0]
	c.mu.Unlock()
	fmt.Fprint(c.out, "\r\n:")
}

func (c *Console) handleCommandByte(b byte) {
	switch b {
	case 13, 10: // Enter
		c.mu.Lock()
		cmd := strings.TrimSpace(string(c.commandBuf))
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()

		fmt.Fprint(c.out, "\r\n")
		if cmd != "" {
			c.executeCommand(cmd)
		}
		c.renderStatusLine()
		return
	case 27: // ESC cancel command mode
		c.mu.Lock()
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()
		fmt.Fprint(c.out, "\r\n[debug] command cancelled\r\n")
		c.renderStatusLine()
		return
	case 8, 127: // Backspace
		c.mu.Lock()
		if len(c.commandBuf) > 0 {
			c.commandBuf = c.commandBuf[:len(c.commandBuf)-1]
		}
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Fprintf(c.out, "\r:%s ", buf)
		fmt.Fprintf(c.out, "\r:%s", buf)
		return
	default:
		if b < 32 || b > 126 {
			return
		}
		c.mu.Lock()
		c.commandBuf = append(c.commandBuf, rune(b))
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Fprintf(c.out, "\r:%s", buf)
	}
}

func (c *Console) executeCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "help":
		c.printHelp()
	case "state":
		name := c.player
		if len(parts) == 2 {
			name = parts[1]
		}
		b, ok := c.world.Snapshot().Find(name)
		if !ok {
			fmt.Fprintf(c.out, "[debug] body %q not found\r\n", name)
			return
		}
		fmt.Fprintf(c.out, "[debug] %s pos=(%.3f,%.3f) vel=(%.3f,%.3f) normal=(%.3f,%.3f) ground=%t\r\n",
			b.Name,
			b.Position.X, b.Position.Y,
			b.Velocity.X, b.Velocity.Y,
			b.GroundNormal.X, b.GroundNormal.Y,
			b.Grounded,
		)
	case "snap":
		fmt.Fprintf(c.out, "[debug] %s\r\n", c.world.Snapshot().String())
	case "bodies":
		for _, b := range c.world.Snapshot().Bodies {
			fmt.Fprintf(c.out, "  %s [%s] pushable=%t\r\n", b.String(), b.Kind, b.Pushable)
		}
	case "tp":
		c.handleTeleport(parts)
	case "step":
		n := 1
		if len(parts) == 2 {
			v, err := strconv.Atoi(parts[1])
			if err != nil || v < 1 || v > maxStepCommand {
				fmt.Fprintf(c.out, "[debug] invalid step count (1-%d)\r\n", maxStepCommand)
				return
			}
			n = v
		}
		for range n {
			c.world.Step()
		}
		fmt.Fprintf(c.out, "[debug] stepped %d, now at step %d\r\n", n, c.world.StepCount())
	default:
		fmt.Fprintf(c.out, "[debug] unknown command: %s\r\n", parts[0])
	}
}

func (c *Console) handleTeleport(parts []string) {
	if len(parts) != 3 && len(parts) != 4 {
		fmt.Fprint(c.out, "[debug] usage: :tp <x> <y> [name]\r\n")
		return
	}
	x, err1 := strconv.ParseFloat(parts[1], 64)
	y, err2 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil {
		fmt.Fprint(c.out, "[debug] invalid tp args\r\n")
		return
	}
	name := c.player
	if len(parts) == 4 {
		name = parts[3]
	}
	if err := c.world.Teleport(name, cp.Vector{X: x, Y: y}); err != nil {
		fmt.Fprintf(c.out, "[debug] tp failed: %v\r\n", err)
		return
	}
	fmt.Fprintf(c.out, "[debug] %s moved to (%.3f, %.3f)\r\n", name, x, y)
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, "[debug] keys:\r\n")
	fmt.Fprint(c.out, "  A/D, Arrow Left/Right: pulse movement (~180ms)\r\n")
	fmt.Fprint(c.out, "  Space, W, Arrow Up: jump\r\n")
	fmt.Fprint(c.out, "  Arrow Down: release jump\r\n")
	fmt.Fprint(c.out, "  X: clear all input\r\n")
	fmt.Fprint(c.out, "  : enter command mode\r\n")
	fmt.Fprint(c.out, "[debug] commands:\r\n")
	fmt.Fprint(c.out, "  :state [name]\r\n")
	fmt.Fprint(c.out, "  :snap\r\n")
	fmt.Fprint(c.out, "  :bodies\r\n")
	fmt.Fprint(c.out, "  :tp <x> <y> [name]\r\n")
	fmt.Fprint(c.out, "  :step [n]\r\n")
	fmt.Fprint(c.out, "  :help\r\n")
}

func (c *Console) renderStatusLine() {
	c.mu.Lock()
	if c.commandMode {
		c.mu.Unlock()
		return
	}
	width := c.statusWidth
	c.mu.Unlock()

	left, right, jump := c.input.Held()
	b, _ := c.world.Snapshot().Find(c.player)

	line := fmt.Sprintf(
		"[L:%s R:%s JMP:%s | X:%.2f Y:%.2f VX:%.2f VY:%.2f ground:%t]",
		boolLabel(left),
		boolLabel(right),
		boolLabel(jump),
		b.Position.X,
		b.Position.Y,
		b.Velocity.X,
		b.Velocity.Y,
		b.Grounded,
	)

	padding := ""
	if width > len(line) {
		padding = strings.Repeat(" ", width-len(line))
	}
	fmt.Fprintf(c.out, "\r%s%s", line, padding)

	c.mu.Lock()
	if len(line) > c.statusWidth {
		c.statusWidth = len(line)
	}
	c.mu.Unlock()
}

func (c *Console) isCommandMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commandMode
}

func boolLabel(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
