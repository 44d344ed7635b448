package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"chatterbox/backend/internal/config"
	"chatterbox/backend/internal/storage"
	"chatterbox/backend/internal/view"
)

// errCacheUnavailable blocks destructive commands while the server's cache
// cannot be invalidated.
var errCacheUnavailable = errors.New("redis is configured but unreachable, the server would keep serving its cached copy")

func main() {
	cfg := config.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	storageSvc, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}

	command := os.Args[1]

	switch command {
	case "clients":
		if err := listClients(ctx, storageSvc); err != nil {
			log.Fatalf("Error listing clients: %v", err)
		}
	case "show":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin show <client_id>")
			os.Exit(1)
		}
		if err := showConversations(ctx, storageSvc, os.Args[2]); err != nil {
			log.Fatalf("Error loading conversations: %v", err)
		}
	case "export":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin export <client_id>")
			os.Exit(1)
		}
		if err := exportConversations(ctx, storageSvc, os.Args[2]); err != nil {
			log.Fatalf("Error exporting conversations: %v", err)
		}
	case "clear":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin clear <client_id>")
			os.Exit(1)
		}
		clientID := os.Args[2]
		if err := clearConversations(ctx, storageSvc, cfg.RedisAddr != "", clientID); err != nil {
			log.Fatalf("Error clearing conversations: %v", err)
		}
		fmt.Printf("Conversations of client %s have been cleared.\n", clientID)
	default:
		fmt.Println("Unknown command")
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: admin <command> [args]")
	fmt.Println("  clients              list client ids with stored data")
	fmt.Println("  show <client_id>     summarize stored conversations")
	fmt.Println("  export <client_id>   print stored conversations as JSON")
	fmt.Println("  clear <client_id>    delete stored conversations")
}

// openStorage uses the same database and cache as the server so that
// removals also evict the server's cached copy.
func openStorage(ctx context.Context, cfg config.Config) (*storage.Service, error) {
	db, err := storage.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	rdb, err := storage.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Printf("Warning: %v", err)
	}
	return storage.NewStorageService(db, rdb), nil
}

func clearConversations(ctx context.Context, s *storage.Service, cacheRequired bool, clientID string) error {
	if cacheRequired && s.Redis == nil {
		return errCacheUnavailable
	}
	return s.RemoveItem(ctx, clientID, config.ConversationsStorageKey)
}

func listClients(ctx context.Context, s storage.Storage) error {
	scopes, err := s.ListScopes(ctx)
	if err != nil {
		return err
	}
	for _, scope := range scopes {
		fmt.Println(scope)
	}
	fmt.Printf("%d client(s)\n", len(scopes))
	return nil
}

func showConversations(ctx context.Context, s storage.Storage, clientID string) error {
	convs, err := s.LoadConversations(ctx, clientID)
	if err != nil {
		return err
	}
	if len(convs) == 0 {
		fmt.Printf("Client %s has no stored conversations.\n", clientID)
		return nil
	}

	list := view.NewConversationsList(convs, "")
	for _, item := range list.Items {
		last := "-"
		if item.LastMessageAt > 0 {
			last = time.UnixMilli(item.LastMessageAt).Format(time.DateTime)
		}
		fmt.Printf("%-16s unread=%-3d last=%s %q\n", item.PartnerUsername, item.Unread, last, item.Preview)
	}
	fmt.Printf("%d conversation(s), %d unread\n", len(list.Items), list.UnreadTotal)
	return nil
}

func exportConversations(ctx context.Context, s storage.Storage, clientID string) error {
	raw, err := s.GetItem(ctx, clientID, config.ConversationsStorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Println("[]")
		return nil
	}
	if err != nil {
		return err
	}

	var pretty json.RawMessage = []byte(raw)
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
