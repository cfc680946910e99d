// Command gkctl is a CLI client for the gatekeeper service.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ---- token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "gatekeeper")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "gatekeeper")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok string, exp time.Time) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	f, err := os.Create(tokenPath())
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, ExpiresAt: exp})
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (login required)")
	}
	return tf.AccessToken, nil
}

// ---- http ----

func call(ctx context.Context, method, url, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error: %s: %s", resp.Status, raw)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("bad response (%s): %w", resp.Status, err)
		}
	}
	return nil
}

// ---- utils ----

func readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(p)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Fprintf(os.Stderr, `gkctl CLI
Usage:
  gkctl -url http://HOST:PORT <cmd> [args]

Commands:
  version
  register   -u <username> -p <password>        (sends activation mail)
  activate   -key <token>
  login      -u <username> -p <password>        (saves token)
  review     -body <text> | -file <path|->      (post a review)
  show       -id <uuid>
  report     -id <uuid>                         (report a review)
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands against the HTTP API.
func main() {
	baseURL := flag.String("url", "http://localhost:5000", "server base URL")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {

	case "version":
		fmt.Printf("gkctl %s (%s)\n", version, buildDate)

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		_ = fs.Parse(flag.Args()[1:])
		if *u == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -u and -p")
			os.Exit(1)
		}

		out := map[string]any{}
		err := call(ctx, http.MethodPost, *baseURL+"/api/register", "",
			map[string]string{"username": *u, "password": *p}, &out)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "activate":
		fs := flag.NewFlagSet("activate", flag.ExitOnError)
		key := fs.String("key", "", "activation token")
		_ = fs.Parse(flag.Args()[1:])
		if *key == "" {
			fmt.Fprintln(os.Stderr, "need -key")
			os.Exit(1)
		}

		out := map[string]any{}
		err := call(ctx, http.MethodGet, *baseURL+"/api/activate?key="+*key, "", nil, &out)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		_ = fs.Parse(flag.Args()[1:])
		if *u == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -u and -p")
			os.Exit(1)
		}

		var out struct {
			Status      string `json:"status"`
			AccessToken string `json:"access_token"`
		}
		err := call(ctx, http.MethodPost, *baseURL+"/api/login", "",
			map[string]string{"username": *u, "password": *p}, &out)
		if err != nil {
			fail(err)
		}
		if out.AccessToken == "" {
			fail(fmt.Errorf("login failed: %s", out.Status))
		}

		// parse exp from JWT; fall back to a short default
		var claims jwt.RegisteredClaims
		_, _ = jwt.ParseWithClaims(out.AccessToken, &claims, func(*jwt.Token) (any, error) { return nil, nil },
			jwt.WithoutClaimsValidation(),
		)
		exp := time.Now().Add(15 * time.Minute)
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}
		if err := saveToken(out.AccessToken, exp); err != nil {
			fail(err)
		}

		fmt.Println("ok")

	case "review":
		fs := flag.NewFlagSet("review", flag.ExitOnError)
		body := fs.String("body", "", "review text")
		file := fs.String("file", "", "review text file ('-'=stdin)")
		_ = fs.Parse(flag.Args()[1:])
		if *body == "" && *file == "" {
			fmt.Fprintln(os.Stderr, "need -body or -file")
			os.Exit(1)
		}
		if *body == "" {
			b, err := readAll(*file)
			if err != nil {
				fail(err)
			}
			*body = string(b)
		}

		token, err := loadToken()
		if err != nil {
			fail(err)
		}
		out := map[string]any{}
		err = call(ctx, http.MethodPost, *baseURL+"/api/reviews", token,
			map[string]string{"body": *body}, &out)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "show":
		fs := flag.NewFlagSet("show", flag.ExitOnError)
		id := fs.String("id", "", "review id (uuid)")
		_ = fs.Parse(flag.Args()[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}

		out := map[string]any{}
		err := call(ctx, http.MethodGet, *baseURL+"/api/reviews/"+*id, "", nil, &out)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "report":
		fs := flag.NewFlagSet("report", flag.ExitOnError)
		id := fs.String("id", "", "review id (uuid)")
		_ = fs.Parse(flag.Args()[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}

		token, err := loadToken()
		if err != nil {
			fail(err)
		}
		out := map[string]any{}
		err = call(ctx, http.MethodPost, *baseURL+"/api/reports", token,
			map[string]string{"review_id": *id}, &out)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	default:
		usage()
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
