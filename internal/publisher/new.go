package publisher

import (
	"context"
	"io"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/nguyentantai21042004/daily-papers/internal/config"
	"github.com/nguyentantai21042004/daily-papers/internal/logger"
)

// inserter performs the actual upload. Swapped out in tests.
type inserter func(ctx context.Context, video *youtube.Video, media io.Reader, progress func(current, total int64)) (string, error)

type implPublisher struct {
	privacy string
	show    string
	insert  inserter
	logger  logger.Logger
}

// New creates a YouTube Publisher authenticated with the configured refresh token.
func New(cfg *config.Config, log logger.Logger) Publisher {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.YouTube.ClientID,
		ClientSecret: cfg.YouTube.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope},
	}
	token := &oauth2.Token{RefreshToken: cfg.YouTube.RefreshToken}

	return &implPublisher{
		privacy: cfg.YouTube.PrivacyStatus,
		show:    cfg.Podcast.Name,
		insert:  youtubeInserter(oauthCfg, token),
		logger:  log,
	}
}

func youtubeInserter(oauthCfg *oauth2.Config, token *oauth2.Token) inserter {
	return func(ctx context.Context, video *youtube.Video, media io.Reader, progress func(current, total int64)) (string, error) {
		svc, err := youtube.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, token)))
		if err != nil {
			return "", err
		}

		resp, err := svc.Videos.Insert([]string{"snippet", "status"}, video).
			Media(media).
			ProgressUpdater(progress).
			Context(ctx).
			Do()
		if err != nil {
			return "", err
		}
		return resp.Id, nil
	}
}
