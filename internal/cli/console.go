package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/endi/internal/curiosity"
	"github.com/ppiankov/endi/internal/logging"
	"github.com/ppiankov/endi/internal/store"
	"github.com/ppiankov/endi/internal/trainer"
	"go.uber.org/zap"
)

// Console is the interactive dialogue loop.
// Slash commands (/mem, /curiosity, /plan, /last, /tokens) are handled
// here; everything else goes to the trainer.
type Console struct {
	trainer *trainer.Trainer
	in      io.Reader
	out     io.Writer
	logger  *zap.Logger
}

// NewConsole creates a console over the given streams
func NewConsole(t *trainer.Trainer, in io.Reader, out io.Writer, logger *zap.Logger) *Console {
	return &Console{trainer: t, in: in, out: out, logger: logging.Component(logger, "console")}
}

// Run reads utterances until EOF or an exit command
func (c *Console) Run() error {
	fmt.Fprintln(c.out, "=== Endi ===")
	fmt.Fprintln(c.out, "Введите сообщение (или 'выход' для завершения)")

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, "Вы: ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if isExit(line) {
			fmt.Fprintln(c.out, "Выход...")
			break
		}

		if c.handleCommand(line) {
			continue
		}
		c.say(line)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	c.logger.Info("session finished")
	return nil
}

// say sends one utterance and prints the reply
func (c *Console) say(line string) {
	reply, ok := c.process(line)
	if !ok {
		return
	}
	if reply.Text != "" {
		fmt.Fprintf(c.out, "Endi: %s\n", reply.Text)
	}
	if reply.Clarification != "" {
		fmt.Fprintf(c.out, "Endi: %s\n", reply.Clarification)
	}
	if state := c.trainer.State(); state.Mode == trainer.ModeAwaitingClarification {
		fmt.Fprintf(c.out, "Endi: %s?\n", curiosity.Question(state.Question))
	}
}

// process runs the trainer on line; a panic is reported to the user
// and ends only the current turn
func (c *Console) process(line string) (reply trainer.Reply, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("utterance failed", zap.String("text", line), zap.Any("panic", r))
			fmt.Fprintf(c.out, "Endi: %s\n", c.trainer.Generator().Error(fmt.Sprint(r)))
			ok = false
		}
	}()
	return c.trainer.Process(line), true
}

func isExit(line string) bool {
	switch strings.ToLower(line) {
	case "exit", "quit", "выход", "/exit", "/quit":
		return true
	}
	return false
}

// handleCommand runs a console command and reports whether line was one
func (c *Console) handleCommand(line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case "/mem":
		c.memCommand(parts[1:])
	case "/curiosity":
		printList(c.out, c.trainer.Curiosity().Questions(), "Открытых вопросов нет.")
	case "/plan":
		printList(c.out, c.trainer.Plan(), "")
	case "/last":
		input, response := c.trainer.Last()
		if input == "" {
			fmt.Fprintln(c.out, "Ещё ничего не сказано.")
			return true
		}
		fmt.Fprintf(c.out, "Вы: %s\nEndi: %s\n", input, response)
	case "/tokens":
		text := strings.Join(parts[1:], " ")
		tok := c.trainer.Tokenizer()
		fmt.Fprintf(c.out, "Токены (%d): %s\n", tok.CountTokens(text), strings.Join(tok.PreviewTokens(text), " | "))
	default:
		return false
	}
	return true
}

func (c *Console) memCommand(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "❗ Уточните: facts, knowledge или export")
		return
	}

	memory := c.trainer.Store()
	switch strings.ToLower(args[0]) {
	case "facts":
		if len(args) > 1 {
			printFacts(c.out, memory.FindBySubject(args[1]))
		} else {
			printFacts(c.out, memory.Facts())
		}
	case "knowledge":
		if len(args) > 1 {
			printKnowledge(c.out, memory.FindKnowledgeByTag(args[1]))
		} else {
			printKnowledge(c.out, memory.Knowledge())
		}
	case "export":
		if len(args) < 2 {
			fmt.Fprintln(c.out, "❗ Укажите формат: md или csv")
			return
		}
		if err := memory.Export(c.out, strings.ToLower(args[1])); err != nil {
			fmt.Fprintf(c.out, "❗ %v\n", err)
		}
	case "stats":
		printStats(c.out, memory.Stats())
	default:
		fmt.Fprintf(c.out, "❗ Неизвестная команда: %s\n", args[0])
	}
}

func printStats(w io.Writer, s store.Stats) {
	fmt.Fprintf(w, "Факты: %d из %d\nЗнания: %d\n", s.Facts, s.MaxFacts, s.Knowledge)
}
