package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lumidecor/internal/catalog"
	"lumidecor/internal/studio"
	"lumidecor/internal/telegram"
)

const (
	helpText = "用法：\n" +
		"发送照片或草图（可多张），再选择风格即可生成方案。\n" +
		"直接发送文字可向大师咨询设计建议。\n\n" +
		"/mode - 切换 室内 / 建筑 / 景观\n" +
		"/photo - 输入为实景照片\n" +
		"/sketch - 输入为手绘草图\n" +
		"/styles - 选择默认风格\n" +
		"/cancel - 取消局部修改\n" +
		"/clear - 重置对话"
	busyText       = "⏳ 大师正在构思中，请稍候再试。"
	editPromptText = "🪄 请描述需要修改的地方（例如：把地毯换成浅灰色大理石）。发送 /cancel 取消。"
	noImageText    = "第 %d 张图片未能生成效果图，请重试。"
)

// render posts assistant messages to the chat. User messages are already there.
func (h *Handler) render(chatID int64, msgs []studio.Message) error {
	for _, m := range msgs {
		if m.Role != studio.RoleAssistant {
			continue
		}
		if err := h.renderMessage(chatID, m); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) renderMessage(chatID int64, m studio.Message) error {
	switch m.Type {
	case studio.TypeStyleSelection:
		sel, _ := m.StyleSelection()
		_, err := h.tg.SendTextWithKeyboard(chatID, m.Content, pickStyleKeyboard(m.ID, sel.Styles))
		return err

	case studio.TypeImageGallery:
		g, _ := m.Gallery()
		caption := m.Content
		for i, entry := range g.Entries {
			if entry.NoImage || entry.Modified == "" {
				if err := h.tg.SendText(chatID, fmt.Sprintf(noImageText, i+1)); err != nil {
					return err
				}
				continue
			}
			kb := entryKeyboard(m.ID, i, entry)
			if err := h.tg.SendPhotoDataURLWithKeyboard(chatID, entry.Modified, caption, &kb); err != nil {
				return err
			}
			caption = ""
		}
		return nil

	case studio.TypeComparison:
		c, _ := m.Comparison()
		if err := h.tg.SendPhotoDataURLWithKeyboard(chatID, c.Original, "原图", nil); err != nil {
			return err
		}
		return h.tg.SendPhotoDataURLWithKeyboard(chatID, c.Modified, "效果图", nil)

	case studio.TypeProductList:
		pl, _ := m.ProductList()
		return h.tg.SendText(chatID, productListText(m.Content, pl.Products))

	default:
		return h.tg.SendText(chatID, textWithLinks(m))
	}
}

func textWithLinks(m studio.Message) string {
	if len(m.GroundingURLs) == 0 {
		return m.Content
	}
	var b strings.Builder
	b.WriteString(m.Content)
	b.WriteString("\n\n🔗 参考链接：")
	for i, l := range m.GroundingURLs {
		title := strings.TrimSpace(l.Title)
		if title == "" {
			title = l.URI
		}
		fmt.Fprintf(&b, "\n%d. %s\n%s", i+1, title, l.URI)
	}
	return b.String()
}

func productListText(header string, products []studio.Product) string {
	var b strings.Builder
	b.WriteString(header)
	for _, p := range products {
		fmt.Fprintf(&b, "\n\n🛋 %s  %s", p.Name, p.Price)
		if p.Link != "" && p.Link != "#" {
			fmt.Fprintf(&b, "\n%s", p.Link)
		}
	}
	return b.String()
}

const (
	cbMode        = "md"
	cbHeaderStyle = "ss"
	cbPickStyle   = "st"
	cbEdit        = "ed"
	cbProducts    = "pd"
	cbCompare     = "cp"
)

func cb(kind string, args ...string) string {
	return strings.Join(append([]string{kind}, args...), ":")
}

func parseCallback(data string) (string, []string) {
	parts := strings.Split(data, ":")
	if len(parts) < 2 {
		return "", nil
	}
	return parts[0], parts[1:]
}

func modeKeyboard(current catalog.Mode) telegram.Keyboard {
	var row []tgbotapi.InlineKeyboardButton
	for _, m := range catalog.Modes() {
		label := m.Label()
		if m == current {
			label = "✅ " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cb(cbMode, string(m))))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func headerStyleKeyboard(st studio.State) telegram.Keyboard {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, s := range catalog.Styles(st.Mode) {
		label := s.Name
		if st.SelectedStyle != nil && st.SelectedStyle.ID == s.ID {
			label = "✅ " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cb(cbHeaderStyle, s.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func pickStyleKeyboard(messageID string, styles []catalog.Style) telegram.Keyboard {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(styles); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(styles[i].Name, cb(cbPickStyle, messageID, styles[i].ID)),
		}
		if i+1 < len(styles) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(styles[i+1].Name, cb(cbPickStyle, messageID, styles[i+1].ID)))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func entryKeyboard(messageID string, index int, entry studio.DesignResult) telegram.Keyboard {
	idx := fmt.Sprint(index)
	row := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("🪄 修改", cb(cbEdit, messageID, idx)),
		tgbotapi.NewInlineKeyboardButtonData("🔍 对比", cb(cbCompare, messageID, idx)),
	}
	if len(entry.Products) > 0 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("🛒 单品", cb(cbProducts, messageID, idx)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}
