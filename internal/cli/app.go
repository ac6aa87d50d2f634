package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/croplabs/picstore/internal/filex"
	"github.com/croplabs/picstore/internal/netx"
	"github.com/croplabs/picstore/internal/server/models"
)

const downloadDir = "downloads"

// App is the CLI entry point. Commands:
//
//	register <email>         register the token's owner
//	validate <folder>        dry-run a submission folder
//	upload <folder>          submit a folder for ingestion
//	get <picture-id>         download a committed picture with its metadata
//	me                       print the owner id encoded in the token
type App struct {
	config *Config
	client *http.Client
	out    io.Writer
}

func NewApp(cfg *Config) *App {
	return &App{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		out:    os.Stdout,
	}
}

func (a *App) Run(ctx context.Context) error {
	args := Args()
	if len(args) == 0 {
		return errors.New("usage: picstore [flags] <register|validate|upload|get|me> [args]")
	}

	switch cmd := args[0]; cmd {
	case "register":
		if len(args) < 2 {
			return errors.New("usage: register <email>")
		}
		return a.register(ctx, args[1])
	case "validate":
		if len(args) < 2 {
			return errors.New("usage: validate <folder>")
		}
		return a.submit(ctx, "/api/v1/datasets/validate", args[1])
	case "upload":
		if len(args) < 2 {
			return errors.New("usage: upload <folder>")
		}
		return a.submit(ctx, "/api/v1/datasets/upload", args[1])
	case "get":
		if len(args) < 2 {
			return errors.New("usage: get <picture-id>")
		}
		return a.get(ctx, args[1])
	case "me":
		return a.me(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *App) register(ctx context.Context, email string) error {
	body, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return err
	}

	req, err := a.newRequest(ctx, http.MethodPost, "/api/v1/users", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return a.doAndPrint(req)
}

func (a *App) me(ctx context.Context) error {
	req, err := a.newRequest(ctx, http.MethodGet, "/api/v1/me", nil)
	if err != nil {
		return err
	}
	return a.doAndPrint(req)
}

// submit packs the folder into a multipart form, one file part per regular
// file, with the part filename carrying the slash-separated relative path.
func (a *App) submit(ctx context.Context, route, folder string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fsys := os.DirFS(folder)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fw, err := w.CreateFormFile("files", p)
		if err != nil {
			return err
		}
		f, err := fsys.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(fw, f)
		return err
	})
	if err != nil {
		return fmt.Errorf("packing folder %s: %w", folder, err)
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := a.newRequest(ctx, http.MethodPost, route, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return a.doAndPrint(req)
}

func (a *App) get(ctx context.Context, id string) error {
	req, err := a.newRequest(ctx, http.MethodGet, "/api/v1/pictures/"+id, nil)
	if err != nil {
		return err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server replied %s: %s", resp.Status, string(body))
	}

	var reply struct {
		Picture     *models.Picture `json:"picture"`
		DownloadURL string          `json:"downloadUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return err
	}

	data, err := netx.DownloadFromPresignedURL(ctx, reply.DownloadURL)
	if err != nil {
		return err
	}

	dir, err := filex.EnsureSubDir(downloadDir)
	if err != nil {
		return err
	}
	name := reply.Picture.ID.String() + path.Ext(reply.Picture.OriginalFilename)
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, data, 0o660); err != nil {
		return err
	}

	meta, err := json.MarshalIndent(reply.Picture, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\nsaved %s\n", meta, target)
	return nil
}

func (a *App) newRequest(ctx context.Context, method, route string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.config.ServerURL+route, body)
	if err != nil {
		return nil, err
	}
	if a.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.config.Token)
	}
	return req, nil
}

func (a *App) doAndPrint(req *http.Request) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, string(body))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("server replied %s", resp.Status)
	}
	return nil
}
