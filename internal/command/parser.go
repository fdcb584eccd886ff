// Package command maps free-form chat text onto the bot's command set using
// regex patterns, covering zh-TW and English variants.
package command

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Type enumerates the supported bot commands.
type Type string

const (
	TypeRecommend Type = "recommend"
	TypeHelp      Type = "help"
	TypeStatus    Type = "status"
	TypeClear     Type = "clear"
	TypeUnknown   Type = "unknown"
)

// Command is one parsed user input.
type Command struct {
	Type         Type
	OriginalText string
	// Confidence is a rough 0.0-1.0 score of how sure the parser is;
	// short exact commands score highest, unknown input scores 0.
	Confidence float64
}

type patternSet struct {
	typ      Type
	patterns []*regexp.Regexp
}

// Parser matches input text against an ordered pattern table.
type Parser struct {
	sets []patternSet
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// NewParser builds a parser with the built-in multilingual pattern table.
func NewParser() *Parser {
	return &Parser{
		sets: []patternSet{
			{TypeRecommend, compileAll(
				`(?i)^(抽|抽餐廳|抽一家|推薦|推薦餐廳|找餐廳|吃什麼|吃啥|要吃什麼)$`,
				`(?i)^(來一家|再來一家|換一家|重新抽|再抽)$`,
				`(?i)^(recommend|recommendation|suggest|draw|random|pick)$`,
				`(?i)^(find.*restaurant|what.*eat|where.*eat)$`,
				`(?i)^(抽.*restaurant|推薦.*food|找.*eat)$`,
			)},
			{TypeHelp, compileAll(
				`(?i)^(help|幫助|說明|指令|怎麼用|如何使用|\?)$`,
				`(?i)^(commands|功能|用法)$`,
			)},
			{TypeStatus, compileAll(
				`(?i)^(status|狀態|我的位置|現在位置|where.*am)$`,
				`(?i)^(location|地址|位置資訊)$`,
			)},
			{TypeClear, compileAll(
				`(?i)^(clear|清除|重設|reset|清空位置|刪除位置)$`,
				`(?i)^(重新設定|重來|重置)$`,
			)},
		},
	}
}

// Parse classifies text into a Command. Unmatched input yields TypeUnknown
// with zero confidence.
func (p *Parser) Parse(text string) Command {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Command{Type: TypeUnknown, OriginalText: text}
	}

	for _, set := range p.sets {
		for _, re := range set.patterns {
			if re.MatchString(trimmed) {
				return Command{
					Type:         set.typ,
					OriginalText: trimmed,
					Confidence:   confidence(trimmed),
				}
			}
		}
	}
	return Command{Type: TypeUnknown, OriginalText: trimmed}
}

func confidence(text string) float64 {
	const base = 0.9
	n := utf8.RuneCountInString(text)
	if n <= 10 {
		return 1.0
	}
	c := base - float64(n)*0.01
	if c < 0.5 {
		return 0.5
	}
	return c
}

// HelpText is the usage guide sent for help and unrecognized input.
func HelpText() string {
	return `🤖 Whatever Eat 指令說明

📍 設定位置
傳送您的位置給我，我會記住 30 分鐘

🎲 抽餐廳指令
• 抽餐廳 / 推薦 / 吃什麼
• 來一家 / 再來一家 / 換一家
• recommend / random / pick

ℹ️ 其他指令
• 狀態 / status - 查看目前位置
• 清除 / clear - 清除位置記錄
• 幫助 / help - 顯示此說明

💡 使用流程
1️⃣ 先傳送您的位置
2️⃣ 輸入抽餐廳指令
3️⃣ 可重複抽取，無需重新設定位置`
}
