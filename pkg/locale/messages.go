package locale

import (
	"net/http"

	"golang.org/x/text/language"
)

type Lang string

const (
	Korean  Lang = "ko"
	English Lang = "en"

	DefaultLang = Korean
)

var matcher = language.NewMatcher([]language.Tag{
	language.Korean,
	language.English,
})

// ParseAcceptLanguage picks the best supported language for an Accept-Language header.
func ParseAcceptLanguage(header string) Lang {
	if header == "" {
		return DefaultLang
	}
	tag, _ := language.MatchStrings(matcher, header)
	base, _ := tag.Base()
	switch base.String() {
	case string(English):
		return English
	default:
		return Korean
	}
}

func FromRequest(r *http.Request) Lang {
	return ParseAcceptLanguage(r.Header.Get("Accept-Language"))
}

var catalog = map[string]map[Lang]string{
	"INVALID_TOKEN": {
		Korean:  "유효하지 않은 예약 링크입니다.",
		English: "Invalid booking token.",
	},
	"TOKEN_NOT_FOUND": {
		Korean:  "예약 링크를 찾을 수 없습니다.",
		English: "Booking link not found.",
	},
	"TOKEN_EXPIRED": {
		Korean:  "예약 링크가 만료되었습니다. 담당자에게 새 링크를 요청해 주세요.",
		English: "This booking link has expired. Please request a new one.",
	},
	"TOKEN_ALREADY_USED": {
		Korean:  "이미 사용된 예약 링크입니다.",
		English: "This booking link has already been used.",
	},
	"LEAD_NOT_FOUND": {
		Korean:  "고객 정보를 찾을 수 없습니다.",
		English: "Lead not found.",
	},
	"SLOT_NOT_AVAILABLE": {
		Korean:  "선택하신 시간은 더 이상 예약할 수 없습니다. 다른 시간을 선택해 주세요.",
		English: "The selected time is no longer available. Please choose another slot.",
	},
	"SLOT_HAS_BOOKINGS": {
		Korean:  "예약이 있는 미팅 슬롯은 삭제할 수 없습니다.",
		English: "A meeting slot with bookings cannot be deleted.",
	},
	"NO_SLOTS_AVAILABLE": {
		Korean:  "예약 가능한 미팅 시간이 없습니다.",
		English: "No meeting slots are available.",
	},
	"INVALID_STATUS_TRANSITION": {
		Korean:  "현재 예약 상태에서는 변경할 수 없습니다.",
		English: "The booking cannot move to the requested status.",
	},
	"VALIDATION_ERROR": {
		Korean:  "입력값을 확인해 주세요.",
		English: "Please check the submitted values.",
	},
	"INVALID_INPUT": {
		Korean:  "잘못된 요청입니다.",
		English: "Invalid request.",
	},
	"UNAUTHORIZED": {
		Korean:  "인증이 필요합니다.",
		English: "Authentication required.",
	},
	"FORBIDDEN": {
		Korean:  "권한이 없습니다.",
		English: "You do not have permission.",
	},
	"NOT_FOUND": {
		Korean:  "요청한 리소스를 찾을 수 없습니다.",
		English: "Resource not found.",
	},
	"RATE_LIMITED": {
		Korean:  "요청이 너무 많습니다. 잠시 후 다시 시도해 주세요.",
		English: "Too many requests, please try again later.",
	},
	"TIMEOUT": {
		Korean:  "요청 시간이 초과되었습니다.",
		English: "The request timed out.",
	},
	"INTERNAL_ERROR": {
		Korean:  "서버 오류가 발생했습니다. 잠시 후 다시 시도해 주세요.",
		English: "Internal server error.",
	},
}

// Message returns the localized text for code, or fallback when the code has no entry.
func Message(lang Lang, code, fallback string) string {
	entry, ok := catalog[code]
	if !ok {
		return fallback
	}
	if msg, ok := entry[lang]; ok {
		return msg
	}
	if msg, ok := entry[DefaultLang]; ok {
		return msg
	}
	return fallback
}
