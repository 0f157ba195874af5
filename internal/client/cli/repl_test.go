package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubExec struct {
	loggedIn bool
	calls    []string
	lastPeer string
	lastText string
}

func (s *stubExec) isLoggedIn() bool { return s.loggedIn }

func (s *stubExec) Register(ctx context.Context) error {
	s.calls = append(s.calls, "register")
	return nil
}
func (s *stubExec) Login(ctx context.Context) error {
	s.calls = append(s.calls, "login")
	return nil
}
func (s *stubExec) Refresh(ctx context.Context) error {
	s.calls = append(s.calls, "refresh")
	return nil
}
func (s *stubExec) Find(ctx context.Context, peerID string) error {
	s.calls = append(s.calls, "find")
	s.lastPeer = peerID
	return nil
}
func (s *stubExec) Users(ctx context.Context) error {
	s.calls = append(s.calls, "users")
	return nil
}
func (s *stubExec) Online(ctx context.Context) error {
	s.calls = append(s.calls, "online")
	return nil
}
func (s *stubExec) Connect(ctx context.Context, peerID string) error {
	s.calls = append(s.calls, "connect")
	s.lastPeer = peerID
	return nil
}
func (s *stubExec) Send(ctx context.Context, peerID, text string) error {
	s.calls = append(s.calls, "send")
	s.lastPeer = peerID
	s.lastText = text
	return nil
}
func (s *stubExec) History(ctx context.Context) error {
	s.calls = append(s.calls, "history")
	return nil
}

func runScript(t *testing.T, a execIface, script string) []string {
	t.Helper()

	var output []string
	saved := printlnFn
	printlnFn = func(args ...any) (int, error) {
		for _, arg := range args {
			output = append(output, arg.(string))
		}
		return 0, nil
	}
	defer func() { printlnFn = saved }()

	scanner := bufio.NewScanner(strings.NewReader(script))
	runREPL(context.Background(), a, func() string { return "" }, scanner)
	return output
}

func TestREPL_DispatchesCommands(t *testing.T) {
	s := &stubExec{}
	runScript(t, s, "register\nlogin\nrefresh\nusers\nonline\nhistory\nexit\n")

	assert.Equal(t, []string{"register", "login", "refresh", "users", "online", "history"}, s.calls)
}

func TestREPL_SendParsesPeerAndText(t *testing.T) {
	s := &stubExec{}
	runScript(t, s, "send peer-1 hello there friend\nexit\n")

	assert.Equal(t, []string{"send"}, s.calls)
	assert.Equal(t, "peer-1", s.lastPeer)
	assert.Equal(t, "hello there friend", s.lastText)
}

func TestREPL_ConnectParsesPeer(t *testing.T) {
	s := &stubExec{}
	runScript(t, s, "connect peer-2\nexit\n")

	assert.Equal(t, "peer-2", s.lastPeer)
}

func TestREPL_FindParsesPeer(t *testing.T) {
	s := &stubExec{}
	runScript(t, s, "find peer-3\nexit\n")

	assert.Equal(t, []string{"find"}, s.calls)
	assert.Equal(t, "peer-3", s.lastPeer)
}

func TestREPL_UnknownCommand(t *testing.T) {
	s := &stubExec{}
	out := runScript(t, s, "frobnicate\nexit\n")

	assert.Empty(t, s.calls)
	assert.Contains(t, out, "Unknown command: frobnicate")
}

func TestREPL_HelpDependsOnLoginState(t *testing.T) {
	out := runScript(t, &stubExec{loggedIn: false}, "help\nexit\n")
	assert.Contains(t, strings.Join(out, "\n"), "register, login")

	out = runScript(t, &stubExec{loggedIn: true}, "help\nexit\n")
	assert.Contains(t, strings.Join(out, "\n"), "send <id> <text>")
}

func TestREPL_ExitsOnEOF(t *testing.T) {
	s := &stubExec{}
	runScript(t, s, "users\n")
	assert.Equal(t, []string{"users"}, s.calls)
}
