package bot

import (
	"fmt"
	"strings"

	"github.com/pchuang/whatever-eat/internal/types"
)

// Reply texts mirror the product's bilingual voice: zh-TW body with a few
// English labels.

func mapsLink(lat, lng float64) string {
	return fmt.Sprintf("https://maps.google.com/?q=%v,%v", lat, lng)
}

func formatLocationSet(loc types.UserLocation) string {
	return fmt.Sprintf(
		"📍 位置已設定！\n\n"+
			"🏷️ 位置：%s\n"+
			"📮 地址：%s\n"+
			"🌐 座標：%v, %v\n\n"+
			"🎲 輸入「抽餐廳」開始抽，30 分鐘內不用重新設定位置",
		loc.Title, loc.Address, loc.Latitude, loc.Longitude)
}

func formatLocationInvalid() string {
	return "抱歉，這個位置訊息缺少座標，請重新傳送您的位置。"
}

func formatNoLocation() string {
	return "📍 請先傳送您的位置，我才能幫您抽附近的餐廳！\n\n點選輸入框旁的「+」→「位置資訊」"
}

func formatNoRestaurants(loc types.UserLocation) string {
	return fmt.Sprintf(
		"😔 抱歉，在您附近找不到餐廳。\n\n"+
			"🏷️ 您的位置：%s\n"+
			"🔗 Google Maps: %s",
		loc.Title, mapsLink(loc.Latitude, loc.Longitude))
}

func formatSearchFailed() string {
	return "抱歉，搜尋附近餐廳時發生錯誤，請稍後再試。"
}

func formatStatus(loc types.UserLocation) string {
	return fmt.Sprintf(
		"📍 目前記住的位置：\n\n"+
			"🏷️ %s\n"+
			"📮 %s\n"+
			"🌐 %v, %v\n\n"+
			"🎲 隨時輸入「抽餐廳」！",
		loc.Title, loc.Address, loc.Latitude, loc.Longitude)
}

func formatStatusEmpty() string {
	return "❌ 目前沒有記住您的位置（可能已過期）。\n請重新傳送位置給我。"
}

func formatClear(removed bool) string {
	if removed {
		return "🗑️ 已清除您的位置記錄。"
	}
	return "目前沒有位置記錄可以清除。"
}

func formatOpeningHours(v types.Venue) string {
	if v.OpenNow == nil {
		return "營業時間資訊不可用"
	}
	status := "🕒 目前休息中"
	if *v.OpenNow {
		status = "🕒 目前營業中"
	}
	if len(v.WeekdayHours) == 0 {
		return status
	}
	var b strings.Builder
	b.WriteString(status)
	b.WriteString("\n\n📅 營業時間：\n")
	for _, day := range v.WeekdayHours {
		b.WriteString("   ")
		b.WriteString(day)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRating(v types.Venue) string {
	if v.Rating == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", *v.Rating)
}

func formatPriceLevel(level string) string {
	switch level {
	case "PRICE_LEVEL_FREE":
		return "免費"
	case "PRICE_LEVEL_INEXPENSIVE":
		return "$"
	case "PRICE_LEVEL_MODERATE":
		return "$$"
	case "PRICE_LEVEL_EXPENSIVE":
		return "$$$"
	case "PRICE_LEVEL_VERY_EXPENSIVE":
		return "$$$$"
	case "":
		return "N/A"
	default:
		return level
	}
}

func formatVenue(v types.Venue, attempts, sessionCount int) string {
	selectionInfo := "🎲 隨機抽選餐廳"
	if attempts > 1 {
		selectionInfo = fmt.Sprintf("🎯 嘗試 %d 次後選出", attempts)
	}

	venueTypes := "未分類"
	if len(v.Types) > 0 {
		venueTypes = strings.Join(v.Types, ", ")
	}

	text := fmt.Sprintf(
		"%s：\n\n"+
			"🍴 %s\n"+
			"⭐ 評分：%s\n"+
			"📍 地址：%s\n"+
			"🏷️ 類型：%s\n"+
			"💰 價位：%s\n\n"+
			"%s",
		selectionInfo, v.Name, formatRating(v), v.Address, venueTypes,
		formatPriceLevel(v.PriceLevel), formatOpeningHours(v))

	if v.MapsURL != "" {
		text += "\n\n🔗 Google Maps: " + v.MapsURL
	}
	if sessionCount > 0 {
		text += fmt.Sprintf("\n\n📊 本次已抽 %d 家", sessionCount)
	}
	return text
}
