package notification

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"glec/pkg/model"
)

//go:embed templates/*
var templateFS embed.FS

const defaultDisplayTimezone = "Asia/Seoul"

type RenderedEmail struct {
	Subject string
	HTML    string
	Text    string
}

type ConfirmationData struct {
	BookingID       string
	ContactName     string
	CompanyName     string
	Email           string
	Phone           string
	MeetingTitle    string
	MeetingType     model.MeetingType
	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int
	Timezone        string
	MeetingLocation model.MeetingLocation
	MeetingURL      string
	OfficeAddress   string
	RequestedAgenda string
	AdminName       string
	AdminEmail      string
	AdminPhone      string

	GoogleCalendarURL string
}

type ProposalData struct {
	TokenID           string
	RecipientEmail    string
	ContactName       string
	CompanyName       string
	LeadSourceDetail  string
	MeetingPurpose    string
	ProposedSlotCount int
	BookingURL        string
	ExpiresAt         time.Time
	Timezone          string
	AdminName         string
	AdminEmail        string
	AdminPhone        string
}

type templatePair struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// Renderer renders the embedded email templates.
type Renderer struct {
	confirmation templatePair
	proposal     templatePair
}

func NewRenderer() (*Renderer, error) {
	confirmation, err := loadPair("meeting_confirmation")
	if err != nil {
		return nil, err
	}
	proposal, err := loadPair("meeting_proposal")
	if err != nil {
		return nil, err
	}
	return &Renderer{confirmation: confirmation, proposal: proposal}, nil
}

func loadPair(name string) (templatePair, error) {
	funcs := map[string]any{
		"formatDate":    formatDate,
		"formatClock":   formatClock,
		"durationLabel": durationLabel,
		"typeLabel":     func(t model.MeetingType) string { return t.Label() },
	}

	htmlTmpl, err := htmltemplate.New(name+".html").
		Funcs(htmltemplate.FuncMap(funcs)).
		Funcs(htmltemplate.FuncMap{"newLineToBreakLine": newLineToBreakLine}).
		ParseFS(templateFS, "templates/"+name+".html")
	if err != nil {
		return templatePair{}, fmt.Errorf("failed to parse %s html template: %w", name, err)
	}

	textTmpl, err := texttemplate.New(name+".txt").
		Funcs(texttemplate.FuncMap(funcs)).
		ParseFS(templateFS, "templates/"+name+".txt")
	if err != nil {
		return templatePair{}, fmt.Errorf("failed to parse %s text template: %w", name, err)
	}

	return templatePair{html: htmlTmpl, text: textTmpl}, nil
}

func (r *Renderer) RenderConfirmation(data ConfirmationData) (*RenderedEmail, error) {
	if data.Timezone == "" {
		data.Timezone = defaultDisplayTimezone
	}
	out, err := r.render(r.confirmation, data)
	if err != nil {
		return nil, err
	}
	out.Subject = fmt.Sprintf("[GLEC] 미팅 예약이 확정되었습니다 - %s", data.MeetingTitle)
	return out, nil
}

func (r *Renderer) RenderProposal(data ProposalData) (*RenderedEmail, error) {
	if data.Timezone == "" {
		data.Timezone = defaultDisplayTimezone
	}
	out, err := r.render(r.proposal, data)
	if err != nil {
		return nil, err
	}
	out.Subject = fmt.Sprintf("[GLEC] %s님께 미팅 일정을 제안드립니다", data.CompanyName)
	return out, nil
}

func (r *Renderer) render(pair templatePair, data any) (*RenderedEmail, error) {
	var htmlBuf, textBuf bytes.Buffer
	if err := pair.html.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render html template: %w", err)
	}
	if err := pair.text.Execute(&textBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render text template: %w", err)
	}
	return &RenderedEmail{HTML: htmlBuf.String(), Text: textBuf.String()}, nil
}

var koreanWeekdays = [...]string{"일요일", "월요일", "화요일", "수요일", "목요일", "금요일", "토요일"}

func inZone(t time.Time, timezone string) time.Time {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc)
}

// formatDate renders "2025년 3월 4일 화요일".
func formatDate(t time.Time, timezone string) string {
	local := inZone(t, timezone)
	return fmt.Sprintf("%d년 %d월 %d일 %s", local.Year(), int(local.Month()), local.Day(), koreanWeekdays[local.Weekday()])
}

func formatClock(t time.Time, timezone string) string {
	return inZone(t, timezone).Format("15:04")
}

// durationLabel renders "1시간", "1시간 30분" or "45분".
func durationLabel(minutes int) string {
	hours, rest := minutes/60, minutes%60
	switch {
	case hours == 0:
		return fmt.Sprintf("%d분", minutes)
	case rest == 0:
		return fmt.Sprintf("%d시간", hours)
	default:
		return fmt.Sprintf("%d시간 %d분", hours, rest)
	}
}

func newLineToBreakLine(s string) htmltemplate.HTML {
	escaped := htmltemplate.HTMLEscapeString(s)
	return htmltemplate.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}
