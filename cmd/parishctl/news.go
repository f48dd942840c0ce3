package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"parish-site/internal/adminclient"
	"parish-site/internal/session"
)

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Manage news through a running server",
}

var newsPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Log in to the API and publish a news item",
	RunE:  runNewsPublish,
}

var (
	apiURL       string
	apiEmail     string
	apiPassword  string
	newsTitle    string
	newsExcerpt  string
	newsContent  string
	newsImageURL string
	newsDraft    bool
	httpTimeout  time.Duration
)

func init() {
	newsCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:8080", "server base URL")
	newsCmd.PersistentFlags().StringVar(&apiEmail, "email", "", "administrator email")
	newsCmd.PersistentFlags().StringVar(&apiPassword, "password", "", "administrator password (or PARISH_ADMIN_PASSWORD env)")
	newsCmd.PersistentFlags().DurationVar(&httpTimeout, "http-timeout", 20*time.Second, "HTTP request timeout")

	newsPublishCmd.Flags().StringVar(&newsTitle, "title", "", "headline")
	newsPublishCmd.Flags().StringVar(&newsExcerpt, "excerpt", "", "summary shown in listings")
	newsPublishCmd.Flags().StringVar(&newsContent, "content", "", "full text")
	newsPublishCmd.Flags().StringVar(&newsImageURL, "image-url", "", "cover image URL")
	newsPublishCmd.Flags().BoolVar(&newsDraft, "draft", false, "save as draft instead of publishing")
	_ = newsPublishCmd.MarkFlagRequired("title")

	newsCmd.AddCommand(newsPublishCmd)
	rootCmd.AddCommand(newsCmd)
}

func runNewsPublish(cmd *cobra.Command, args []string) error {
	password := passwordFromFlagOrEnv(apiPassword)
	if apiEmail == "" || password == "" {
		return errors.New("--email and --password (or PARISH_ADMIN_PASSWORD) are required")
	}

	client := adminclient.New(apiURL, session.NewManager(nil, nil), newHTTPClient(httpTimeout))
	ctx := cmd.Context()

	if _, err := client.Login(ctx, apiEmail, password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer func() { _ = client.Logout(ctx) }()

	status := "published"
	if newsDraft {
		status = "draft"
	}

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	err := client.PostJSON(ctx, "/api/noticias", map[string]string{
		"title":     newsTitle,
		"excerpt":   newsExcerpt,
		"content":   newsContent,
		"image_url": newsImageURL,
		"status":    status,
	}, &created)
	if err != nil {
		return fmt.Errorf("publish news: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "news %s saved as %s\n", created.ID, created.Status)
	return nil
}
