package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/stockchat/agent-backend/internal/entity"
	"github.com/stockchat/agent-backend/internal/pkg/formatter"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

type QueryUsecase interface {
	Run(ctx context.Context, question string) (*entity.Answer, error)
}

type IngestUsecase interface {
	Ingest(ctx context.Context, files []entity.FileData) (int, error)
}

const (
	startMessage = "Hi! Send me a question about stocks and markets, or upload a PDF/DOCX document to add it to my knowledge base."

	timeoutMessage = "I could not complete the reasoning for this question in time. Please try rephrasing."

	// Telegram caps messages at 4096 characters; longer answers are
	// sent as a PDF attachment instead.
	maxMessageLength = 3500
)

// bot relays telegram chats to the agent: text messages become
// questions, document uploads go through the ingestion pipeline.
type bot struct {
	api       *tgbotapi.BotAPI
	queryUC   QueryUsecase
	ingestUC  IngestUsecase
	client    *http.Client
	formatter formatter.Formatter
	logger    *zap.Logger
}

// NewBot initializes the telegram bot with all dependencies. Answers
// exceeding the message length limit are sent as documents rendered by
// exporter.
func NewBot(token string, queryUC QueryUsecase, ingestUC IngestUsecase, exporter formatter.Formatter, logger *zap.Logger) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	logger.Info("telegram bot initialized successfully",
		zap.String("username", api.Self.UserName),
	)

	return &bot{
		api:       api,
		queryUC:   queryUC,
		ingestUC:  ingestUC,
		client:    http.DefaultClient,
		formatter: exporter,
		logger:    logger,
	}, nil
}

func (b *bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *bot) Stop() error {
	b.api.StopReceivingUpdates()
	return nil
}

func (b *bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case msg.Document != nil:
		b.handleDocument(ctx, msg)
	case msg.IsCommand():
		b.reply(msg.Chat.ID, startMessage)
	case strings.TrimSpace(msg.Text) != "":
		b.handleQuestion(ctx, msg)
	}
}

func (b *bot) handleQuestion(ctx context.Context, msg *tgbotapi.Message) {
	b.logger.Info("telegram question received",
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Int("length", len(msg.Text)),
	)

	answer, err := b.queryUC.Run(ctx, msg.Text)
	if err != nil {
		if errors.Is(err, entity.ErrWorkflowTimeout) {
			b.reply(msg.Chat.ID, timeoutMessage)
			return
		}
		b.logger.Error("failed to answer question", zap.Error(err))
		b.reply(msg.Chat.ID, "Something went wrong, please try again later.")
		return
	}

	text := answer.Text
	if len(answer.Sources) > 0 {
		text += "\n\nSources: " + strings.Join(answer.Sources, ", ")
	}

	if len(text) > maxMessageLength {
		b.replyWithDocument(msg.Chat.ID, text)
		return
	}
	b.reply(msg.Chat.ID, text)
}

// replyWithDocument sends an answer too long for a telegram message as
// a PDF attachment.
func (b *bot) replyWithDocument(chatID int64, text string) {
	content, err := b.formatter.Format(text)
	if err != nil {
		b.logger.Error("failed to format answer document", zap.Error(err))
		b.reply(chatID, text[:maxMessageLength])
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  "answer" + b.formatter.FileExtension(),
		Bytes: content,
	})
	if _, err := b.api.Send(doc); err != nil {
		b.logger.Error("failed to send telegram document", zap.Error(err))
	}
}

func (b *bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	doc := msg.Document

	b.logger.Info("telegram document received",
		zap.Int64("chat_id", msg.Chat.ID),
		zap.String("filename", doc.FileName),
	)

	content, err := b.downloadFile(ctx, doc.FileID)
	if err != nil {
		b.logger.Error("failed to download document", zap.Error(err))
		b.reply(msg.Chat.ID, "Could not download the document, please try again.")
		return
	}

	count, err := b.ingestUC.Ingest(ctx, []entity.FileData{
		{Filename: doc.FileName, Content: content},
	})
	if err != nil {
		if errors.Is(err, entity.ErrUnsupportedFileType) {
			b.reply(msg.Chat.ID, "Only PDF and DOCX documents are supported.")
			return
		}
		b.logger.Error("failed to ingest document", zap.Error(err))
		b.reply(msg.Chat.ID, "Could not process the document, please try again later.")
		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("Document indexed: %d chunks added. Ask me about it!", count))
}

func (b *bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (b *bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error("failed to send telegram message", zap.Error(err))
	}
}
