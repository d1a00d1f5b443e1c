package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"letschat/internal/backend"
	"letschat/internal/backend/store"
	"letschat/internal/bus"
	"letschat/internal/client"
	"letschat/internal/config"
	"letschat/internal/logging"
	"letschat/internal/model"
	"letschat/internal/session"
	"letschat/internal/state"
	"letschat/internal/transport"
	"letschat/internal/upload"
)

func main() {
	serverFlag := flag.String("server", "", "backend URL (overrides config; empty = in-process backend)")
	configFlag := flag.String("config", "", "config file path (default ~/.letschat/config.toml)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	c, cleanup, err := buildClient(*configFlag, *serverFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch args[0] {
	case "login":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: letschat login <email> <password>")
			os.Exit(1)
		}
		cmdLogin(ctx, c, args[1], args[2])
	case "logout":
		c.Logout()
		fmt.Println("logged out")
	case "whoami":
		cmdWhoami(c, *jsonFlag)
	case "chats":
		cmdChats(ctx, c, *jsonFlag)
	case "messages":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: letschat messages <chat-id>")
			os.Exit(1)
		}
		cmdMessages(ctx, c, args[1], *jsonFlag)
	case "send":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: letschat send <chat-id> <text>")
			os.Exit(1)
		}
		cmdSend(ctx, c, args[1], args[2], *jsonFlag)
	case "upload":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: letschat upload <chat-id> <file>")
			os.Exit(1)
		}
		cmdUpload(ctx, c, args[1], args[2], *jsonFlag)
	case "peers":
		cmdPeers(ctx, c, *jsonFlag)
	case "broadcast":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: letschat broadcast <text> <user-id> [user-id ...]")
			os.Exit(1)
		}
		cmdBroadcast(ctx, c, args[1], args[2:], *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: letschat [--server <url>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  login <email> <password>            Authenticate and store the session")
	fmt.Fprintln(os.Stderr, "  logout                              Drop the session")
	fmt.Fprintln(os.Stderr, "  whoami                              Show the authenticated user")
	fmt.Fprintln(os.Stderr, "  chats                               List chats")
	fmt.Fprintln(os.Stderr, "  messages <chat-id>                  List a chat's messages")
	fmt.Fprintln(os.Stderr, "  send <chat-id> <text>               Send a text message")
	fmt.Fprintln(os.Stderr, "  upload <chat-id> <file>             Upload a media file and send it")
	fmt.Fprintln(os.Stderr, "  peers                               List broadcast recipients")
	fmt.Fprintln(os.Stderr, "  broadcast <text> <user-id> [...]    Send one text to many users")
}

// buildClient wires the store, transport and upload manager. With no
// server URL the client runs against the in-process fixture backend,
// persisted under ~/.letschat so consecutive invocations see each other.
func buildClient(configPath, serverURL string) (*client.Client, func(), error) {
	if err := session.EnsureDirs(); err != nil {
		return nil, nil, err
	}
	if configPath == "" {
		configPath = session.ConfigPath()
	}
	cfg := config.Default()
	if _, err := os.Stat(configPath); err == nil {
		if cfg, err = config.Load(configPath); err != nil {
			return nil, nil, err
		}
	}
	if serverURL == "" {
		serverURL = cfg.ServerURL
	}

	logger, err := logging.New(session.LogPath("letschat"))
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = logger.Sync() }

	var tr transport.Client
	if serverURL != "" {
		tr = transport.NewHTTP(serverURL)
	} else {
		dbPath := cfg.DBPath
		if dbPath == "" {
			dbPath = session.DataDBPath()
		}
		db, err := store.Open(dbPath)
		if err != nil {
			return nil, nil, err
		}
		if _, err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		svc := backend.NewService(db, logger)
		if err := svc.Seed(); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		tr = transport.NewFake(svc)
		cleanup = func() {
			_ = db.Close()
			_ = logger.Sync()
		}
	}

	b := bus.NewBus()
	st, err := state.New(tr, b, session.StatePath(), logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	up := upload.NewManager(tr, b, logger)
	return client.New(st, tr, up, logger), cleanup, nil
}

func cmdLogin(ctx context.Context, c *client.Client, email, password string) {
	if err := c.Login(ctx, email, password); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	u := c.Store().Auth().User
	fmt.Printf("logged in as %s <%s>\n", u.Name, u.Email)
}

func cmdWhoami(c *client.Client, jsonOut bool) {
	auth := c.Store().Auth()
	if !auth.Authenticated {
		fmt.Println("not logged in")
		os.Exit(1)
	}
	if jsonOut {
		outputJSON(auth.User)
		return
	}
	fmt.Printf("%s  %s <%s>\n", auth.User.ID, auth.User.Name, auth.User.Email)
}

func cmdChats(ctx context.Context, c *client.Client, jsonOut bool) {
	if err := c.Hydrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	chats := c.Store().Chats()
	if jsonOut {
		outputJSON(chats)
		return
	}
	for _, chat := range chats {
		name := chat.GroupName
		if name == "" {
			name = chatPartnerName(c, chat)
		}
		last := ""
		if chat.LastMessage != nil {
			last = chat.LastMessage.Content
		}
		fmt.Printf("%s  %-16s unread=%d  %s\n", chat.ID, name, chat.UnreadCount, last)
	}
}

func chatPartnerName(c *client.Client, chat model.Chat) string {
	auth := c.Store().Auth()
	for _, p := range chat.Participants {
		if auth.User == nil || p.ID != auth.User.ID {
			return p.Name
		}
	}
	return "(empty)"
}

func cmdMessages(ctx context.Context, c *client.Client, chatID string, jsonOut bool) {
	if err := c.Hydrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	msgs := c.Store().MessagesFor(chatID)
	if jsonOut {
		outputJSON(msgs)
		return
	}
	for _, m := range msgs {
		body := m.Content
		if m.Kind != model.KindText {
			body = fmt.Sprintf("[%s] %s", m.Kind, m.Content)
		}
		fmt.Printf("%s  from=%s  %s\n", m.Timestamp.Format(time.RFC3339), m.SenderID, body)
	}
}

func cmdSend(ctx context.Context, c *client.Client, chatID, text string, jsonOut bool) {
	if err := c.Hydrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	msg, err := c.SendText(ctx, chatID, text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if jsonOut {
		outputJSON(msg)
		return
	}
	fmt.Printf("sent %s\n", msg.ID)
}

func cmdUpload(ctx context.Context, c *client.Client, chatID, path string, jsonOut bool) {
	if err := c.Hydrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))

	task, err := c.Uploads().Add(ctx, model.File{
		Name: filepath.Base(path),
		MIME: mimeType,
		Data: data,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	<-task.Done()
	if task.State() != upload.Uploaded {
		fmt.Fprintf(os.Stderr, "error: upload ended in %s: %v\n", task.State(), task.Err())
		os.Exit(1)
	}

	sent, err := c.SendPending(ctx, chatID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if jsonOut {
		outputJSON(sent)
		return
	}
	for _, m := range sent {
		fmt.Printf("sent %s (%s)\n", m.ID, m.Kind)
	}
}

func cmdPeers(ctx context.Context, c *client.Client, jsonOut bool) {
	peers, err := c.ListPeers(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if jsonOut {
		outputJSON(peers)
		return
	}
	for _, p := range peers {
		fmt.Printf("%s  %s <%s>\n", p.ID, p.Name, p.Email)
	}
}

func cmdBroadcast(ctx context.Context, c *client.Client, text string, recipients []string, jsonOut bool) {
	if err := c.Hydrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	outcomes, err := c.Broadcast(ctx, recipients, text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if jsonOut {
		outputJSON(outcomes)
		return
	}
	failed := 0
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
			fmt.Printf("%s  FAILED: %v\n", out.RecipientID, out.Err)
			continue
		}
		fmt.Printf("%s  sent (chat %s)\n", out.RecipientID, out.ChatID)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
