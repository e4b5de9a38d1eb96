// Command memory-client is an interactive shell over the per-role situation
// memories. Lessons added here go through the journal, so they are visible to
// the trading pipeline on its next start.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterh/liner"

	"github.com/bensonmaxai/TradingAgents/pkg/config"
	"github.com/bensonmaxai/TradingAgents/pkg/council"
	"github.com/bensonmaxai/TradingAgents/pkg/log"
	"github.com/bensonmaxai/TradingAgents/pkg/mem/situation"
	"github.com/bensonmaxai/TradingAgents/pkg/reflection"
)

const (
	cmdHelp   = "!help"
	cmdQuit   = "!quit"
	cmdMemory = "!memory"
	cmdAdd    = "!add"
	cmdPin    = "!pin"
	cmdDate   = "!date"
	cmdClear  = "!clear"
)

var helpText = `
Memory Client - Command Reference:
-----------------------------------------
!help                      - Show this help message
!memory <role>             - Switch to another role memory
!add <situation>|<advice>  - Store a lesson (journaled)
!pin <situation>|<advice>  - Pin playbook guidance (journaled)
!date <YYYY-MM-DD>         - Set the reference date for recency weighting
!clear                     - Drop this session's regular lessons
!quit                      - Exit

Notes:
- Regular text input is matched against the stored situations
- Roles: ` + strings.Join(reflection.Roles(), ", ")

const historyFile = ".tradingagents_history"

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	role := flag.String("memory", reflection.RoleTrader, "Role memory to open")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	log.Setup(cfg.Logging)

	c, err := council.NewFromConfig(cfg)
	if err != nil {
		log.Error("Failed to assemble council", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	if _, err := c.Memory(*role); err != nil {
		fmt.Fprintf(os.Stderr, "unknown memory role %q\n", *role)
		os.Exit(2)
	}

	runCLI(c, cfg, *role)
}

func runCLI(c *council.Council, cfg *config.Config, role string) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(prefix string) (out []string) {
		for _, cmd := range []string{cmdHelp, cmdQuit, cmdMemory, cmdAdd, cmdPin, cmdDate, cmdClear} {
			if strings.HasPrefix(cmd, prefix) {
				out = append(out, cmd)
			}
		}
		return
	})

	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	session := &session{council: c, role: role}

	fmt.Println("\n=== TradingAgents Memory Client ===")
	fmt.Printf("Memory: %s | Hybrid search: %v\n", role, cfg.Memory.HybridSearch)
	fmt.Println("Type !help for available commands.")

	for {
		input, err := line.Prompt(fmt.Sprintf("memory::%s> ", session.role))
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if input == cmdQuit {
			fmt.Println("Goodbye!")
			return
		}
		session.handle(input)
	}
}

type session struct {
	council *council.Council
	role    string
	refDate time.Time
}

func (s *session) handle(input string) {
	ctx := context.Background()

	if !strings.HasPrefix(input, "!") {
		s.query(ctx, input)
		return
	}

	parts := strings.SplitN(input, " ", 2)
	arg := ""
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}

	switch parts[0] {
	case cmdHelp:
		fmt.Println(helpText)

	case cmdMemory:
		if _, err := s.council.Memory(arg); err != nil {
			fmt.Printf("Unknown role %q. Roles: %s\n", arg, strings.Join(reflection.Roles(), ", "))
			return
		}
		s.role = arg
		fmt.Printf("Switched to %s\n", arg)

	case cmdAdd:
		pair, ok := splitPair(arg)
		if !ok {
			fmt.Println("Usage: !add <situation>|<recommendation>")
			return
		}
		if err := s.council.AddLessons(ctx, s.role, []situation.Pair{pair}); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Println("Lesson stored.")

	case cmdPin:
		pair, ok := splitPair(arg)
		if !ok {
			fmt.Println("Usage: !pin <situation>|<recommendation>")
			return
		}
		if err := s.council.SetPlaybook(ctx, s.role, []situation.Pair{pair}); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Println("Playbook pinned.")

	case cmdDate:
		day, err := time.Parse("2006-01-02", arg)
		if err != nil {
			fmt.Println("Usage: !date <YYYY-MM-DD>")
			return
		}
		s.refDate = day
		fmt.Printf("Reference date set to %s; dated lessons are now weighted by age.\n", arg)

	case cmdClear:
		store, err := s.council.Memory(s.role)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		store.Clear(false)
		fmt.Println("Regular lessons dropped for this session (journal untouched).")

	default:
		fmt.Printf("Unknown command %q. Type !help for the list.\n", parts[0])
	}
}

func (s *session) query(ctx context.Context, text string) {
	store, err := s.council.Memory(s.role)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	matches, err := store.Retrieve(ctx, text, 3, situation.QueryOptions{ReferenceDate: s.refDate})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(matches) == 0 {
		fmt.Println("No stored situations yet. Use !add first.")
		return
	}

	for i, m := range matches {
		fmt.Printf("%d. [%.3f] %s\n   -> %s\n", i+1, m.SimilarityScore,
			firstLine(m.MatchedSituation), m.Recommendation)
	}
}

// splitPair parses "situation | recommendation".
func splitPair(arg string) (situation.Pair, bool) {
	parts := strings.SplitN(arg, "|", 2)
	if len(parts) != 2 {
		return situation.Pair{}, false
	}
	pair := situation.Pair{
		Situation:      strings.TrimSpace(parts[0]),
		Recommendation: strings.TrimSpace(parts[1]),
	}
	if pair.Situation == "" || pair.Recommendation == "" {
		return situation.Pair{}, false
	}
	return pair, true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
