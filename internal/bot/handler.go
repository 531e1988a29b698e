// Package bot drives studio sessions from Telegram chats.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"lumidecor/internal/catalog"
	"lumidecor/internal/intake"
	"lumidecor/internal/mediagroup"
	"lumidecor/internal/session"
	"lumidecor/internal/studio"
	"lumidecor/internal/telegram"
)

// Messenger is the slice of the Telegram client the handler talks to.
type Messenger interface {
	SendTyping(chatID int64)
	SendText(chatID int64, text string) error
	SendTextWithKeyboard(chatID int64, text string, kb telegram.Keyboard) (int, error)
	SendPhotoDataURLWithKeyboard(chatID int64, dataURL string, caption string, kb *telegram.Keyboard) error
	ClearKeyboard(chatID int64, messageID int) error
	AnswerCallback(callbackID, text string, alert bool) error
	DownloadFileBase64(ctx context.Context, fileID string) (string, string, error)
}

type Options struct {
	Telegram Messenger
	Sessions *session.Store
	Logger   *slog.Logger
}

type Handler struct {
	tg         Messenger
	sessions   *session.Store
	logger     *slog.Logger
	aggregator *mediagroup.Aggregator
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		tg:       opts.Telegram,
		sessions: opts.Sessions,
		logger:   logger,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

func sessionKey(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func (h *Handler) entry(chatID int64) *session.Entry {
	return h.sessions.GetOrCreate(sessionKey(chatID))
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, msg)
	}

	if len(msg.Photo) > 0 {
		return h.handlePhoto(ctx, chatID, msg)
	}

	if msg.Text != "" {
		return h.handleText(ctx, chatID, msg.Text)
	}

	return nil
}

func (h *Handler) HandleMediaGroup(ctx context.Context, group mediagroup.Group) {
	if err := h.processPhotos(ctx, group.ChatID, group.Caption, group.FileIDs); err != nil {
		h.logger.Error("media group processing failed", "chat", group.ChatID, "err", err)
	}
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, msg *tgbotapi.Message) error {
	e := h.entry(chatID)

	switch msg.Command() {
	case "start", "help":
		return h.tg.SendText(chatID, e.Studio.State().Messages[0].Content+"\n\n"+helpText)

	case "clear":
		h.sessions.Delete(e.ID)
		fresh := h.entry(chatID)
		return h.tg.SendText(chatID, "✅ 对话已重置。\n\n"+fresh.Studio.State().Messages[0].Content)

	case "mode":
		arg := strings.TrimSpace(msg.CommandArguments())
		if arg == "" {
			_, err := h.tg.SendTextWithKeyboard(chatID, "请选择设计模式：", modeKeyboard(e.Studio.State().Mode))
			return err
		}
		mode, err := catalog.ParseMode(arg)
		if err != nil {
			return h.tg.SendText(chatID, "❌ 未知模式。可选：interior / exterior / landscape")
		}
		return h.dispatch(ctx, chatID, e, studio.SetMode{Mode: mode})

	case "photo", "sketch":
		input := catalog.InputPhoto
		if msg.Command() == "sketch" {
			input = catalog.InputSketch
		}
		if err := h.dispatch(ctx, chatID, e, studio.SetInputType{InputType: input}); err != nil {
			return err
		}
		return h.tg.SendText(chatID, fmt.Sprintf("✅ 输入类型：%s", input.Label()))

	case "styles":
		st := e.Studio.State()
		_, err := h.tg.SendTextWithKeyboard(chatID, fmt.Sprintf("【%s】可选风格：", st.Mode.Label()), headerStyleKeyboard(st))
		return err

	case "cancel":
		st := e.Studio.State()
		if st.Overlay == nil {
			return h.tg.SendText(chatID, "当前没有进行中的修改。")
		}
		_, _ = e.Studio.Dispatch(ctx, studio.CancelEdit{})
		_, _ = e.Studio.Dispatch(ctx, studio.CloseOverlay{})
		return h.tg.SendText(chatID, "已取消修改。")

	default:
		return h.tg.SendText(chatID, "❌ 未知命令。发送 /help 查看用法。")
	}
}

func (h *Handler) handleText(ctx context.Context, chatID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	e := h.entry(chatID)
	if ov := e.Studio.State().Overlay; ov != nil && ov.Editing {
		return h.edit(ctx, chatID, e, text)
	}

	h.tg.SendTyping(chatID)
	return h.dispatch(ctx, chatID, e, studio.Submit{Text: text})
}

func (h *Handler) handlePhoto(ctx context.Context, chatID int64, msg *tgbotapi.Message) error {
	photo := msg.Photo[len(msg.Photo)-1]
	fileID := photo.FileID

	if msg.MediaGroupID != "" && h.aggregator != nil {
		var userID int64
		if msg.From != nil {
			userID = msg.From.ID
		}
		h.aggregator.Add(mediagroup.Item{
			ChatID:       chatID,
			UserID:       userID,
			MediaGroupID: msg.MediaGroupID,
			Caption:      msg.Caption,
			FileID:       fileID,
		})
		return nil
	}

	return h.processPhotos(ctx, chatID, msg.Caption, []string{fileID})
}

// processPhotos downloads the photos in parallel and submits them as one batch.
func (h *Handler) processPhotos(ctx context.Context, chatID int64, caption string, fileIDs []string) error {
	h.tg.SendTyping(chatID)

	e := h.entry(chatID)
	input := e.Studio.State().InputType

	atts := make([]intake.Attachment, len(fileIDs))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, fileID := range fileIDs {
		i, fileID := i, fileID
		eg.Go(func() error {
			data, mimeType, err := h.tg.DownloadFileBase64(egCtx, fileID)
			if err != nil {
				return err
			}
			att, err := intake.FromBase64(data, mimeType, input)
			if err != nil {
				return err
			}
			atts[i] = att
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		h.logger.Error("photo download failed", "chat", chatID, "err", err)
		return h.tg.SendText(chatID, "❌ 图片下载失败，请重新发送。")
	}

	return h.dispatch(ctx, chatID, e, studio.Submit{Text: caption, Attachments: atts})
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q.Message == nil {
		return nil
	}
	chatID := q.Message.Chat.ID
	e := h.entry(chatID)

	kind, args := parseCallback(q.Data)
	switch kind {
	case cbMode:
		mode, err := catalog.ParseMode(args[0])
		if err != nil {
			return h.tg.AnswerCallback(q.ID, "未知模式", true)
		}
		_ = h.tg.AnswerCallback(q.ID, mode.Label(), false)
		_ = h.tg.ClearKeyboard(chatID, q.Message.MessageID)
		return h.dispatch(ctx, chatID, e, studio.SetMode{Mode: mode})

	case cbHeaderStyle:
		_ = h.tg.AnswerCallback(q.ID, "OK", false)
		h.tg.SendTyping(chatID)
		return h.dispatch(ctx, chatID, e, studio.SelectStyle{StyleID: args[0]})

	case cbPickStyle:
		if len(args) < 2 {
			break
		}
		_ = h.tg.AnswerCallback(q.ID, "开始生成…", false)
		_ = h.tg.ClearKeyboard(chatID, q.Message.MessageID)
		h.tg.SendTyping(chatID)
		return h.dispatch(ctx, chatID, e, studio.PickStyle{MessageID: args[0], StyleID: args[1]})

	case cbEdit, cbProducts, cbCompare:
		if len(args) < 2 {
			break
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			break
		}
		return h.handleEntryAction(ctx, q, e, kind, args[0], index)
	}

	return h.tg.AnswerCallback(q.ID, "该按钮已失效。", true)
}

func (h *Handler) handleEntryAction(ctx context.Context, q *tgbotapi.CallbackQuery, e *session.Entry, kind, messageID string, index int) error {
	chatID := q.Message.Chat.ID

	if kind == cbCompare {
		_ = h.tg.AnswerCallback(q.ID, "OK", false)
		return h.dispatch(ctx, chatID, e, studio.Compare{MessageID: messageID, Index: index})
	}

	if _, err := e.Studio.Dispatch(ctx, studio.OpenOverlay{MessageID: messageID, Index: index}); err != nil {
		h.logger.Warn("open design failed", "chat", chatID, "message", messageID, "err", err)
		return h.tg.AnswerCallback(q.ID, "该方案已不可用。", true)
	}

	if kind == cbProducts {
		_ = h.tg.AnswerCallback(q.ID, "OK", false)
		return h.dispatch(ctx, chatID, e, studio.RequestProducts{})
	}

	if _, err := e.Studio.Dispatch(ctx, studio.BeginEdit{}); err != nil {
		return err
	}
	_ = h.tg.AnswerCallback(q.ID, "请发送修改描述", false)
	return h.tg.SendText(chatID, editPromptText)
}

// edit sends the instruction for the open design and posts the new image on success.
func (h *Handler) edit(ctx context.Context, chatID int64, e *session.Entry, instruction string) error {
	before := e.Studio.State().Overlay

	h.tg.SendTyping(chatID)
	appended, err := e.Studio.Dispatch(ctx, studio.Edit{Instruction: instruction})
	if err != nil {
		return h.reportDispatchError(chatID, err)
	}

	after := e.Studio.State().Overlay
	if after != nil && before != nil && after.Result.Modified != before.Result.Modified {
		caption := ""
		if n := len(appended); n > 0 {
			caption = appended[n-1].Content
		}
		kb := entryKeyboard(after.MessageID, after.Index, after.Result)
		return h.tg.SendPhotoDataURLWithKeyboard(chatID, after.Result.Modified, caption, &kb)
	}
	return h.render(chatID, appended)
}

// dispatch applies act to the chat's studio and renders what it appended.
func (h *Handler) dispatch(ctx context.Context, chatID int64, e *session.Entry, act studio.Action) error {
	appended, err := e.Studio.Dispatch(ctx, act)
	if err != nil {
		return h.reportDispatchError(chatID, err)
	}
	return h.render(chatID, appended)
}

func (h *Handler) reportDispatchError(chatID int64, err error) error {
	switch {
	case errors.Is(err, studio.ErrGenerating):
		return h.tg.SendText(chatID, busyText)
	case errors.Is(err, studio.ErrEmptySubmission):
		return nil
	case errors.Is(err, studio.ErrUnknownStyle), errors.Is(err, studio.ErrUnknownMessage),
		errors.Is(err, studio.ErrNotStyleSelection):
		return h.tg.SendText(chatID, "该选项已失效，请重新上传图片。")
	case errors.Is(err, studio.ErrNoProducts):
		return h.tg.SendText(chatID, "该方案没有单品清单。")
	default:
		h.logger.Error("studio dispatch failed", "chat", chatID, "err", err)
		return h.tg.SendText(chatID, "❌ 操作失败，请重试。")
	}
}
