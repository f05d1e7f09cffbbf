package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lemiel/internal/model"
	"lemiel/internal/render"
)

// Префиксы данных inline-кнопок
const (
	callbackDepartment   = "dept:"
	callbackApprove      = "approve:"
	callbackReject       = "reject:"
	callbackDeleteReview = "delreview:"
	callbackDeletePlug   = "delplug:"
)

const departmentsPerRow = 2

// departmentKeyboard строит клавиатуру фильтра по департаментам
func departmentKeyboard(departments []model.Department, counts map[string]int, total int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🌍 Tous (%d)", total), callbackDepartment+render.FilterAll),
	))

	var row []tgbotapi.InlineKeyboardButton
	for _, dept := range departments {
		label := fmt.Sprintf("%s %s (%d)", emojiOr(dept.Emoji), render.DepartmentLabel(dept), counts[dept.Code])
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, callbackDepartment+dept.Code))
		if len(row) == departmentsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// moderationKeyboard - кнопки одобрения и отклонения отзыва
func moderationKeyboard(reviewID int64) tgbotapi.InlineKeyboardMarkup {
	id := strconv.FormatInt(reviewID, 10)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Approuver", callbackApprove+id),
		tgbotapi.NewInlineKeyboardButtonData("❌ Rejeter", callbackReject+id),
	))
}

// plugAdminKeyboard - кнопка удаления плага для администраторов
func plugAdminKeyboard(plugID int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🗑 Supprimer le plug", callbackDeletePlug+strconv.Itoa(plugID)),
	))
}

// approvedReviewKeyboard - кнопка удаления опубликованного отзыва
func approvedReviewKeyboard(reviewID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🗑 Supprimer l'avis", callbackDeleteReview+strconv.FormatInt(reviewID, 10)),
	))
}

// parseCallback разбирает данные кнопки вида "prefix:value"
func parseCallback(data string) (prefix, value string) {
	idx := strings.Index(data, ":")
	if idx < 0 {
		return data, ""
	}
	return data[:idx+1], data[idx+1:]
}
