// Package prompt builds the instruction text sent to the language model.
//
// Builders are pure: the same context always produces the same prompt, and
// nothing here performs I/O. Input validation happens before a builder is
// called: NewPostContext runs PostContext.Validate on the raw form values.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Audience is the target customer group of a promotional post.
type Audience string

const (
	AudienceBeginner  Audience = "수영 초보/강습생"
	AudienceAdvanced  Audience = "수영 고수/매니아"
	AudienceTraveler  Audience = "호캉스/여행객"
	AudienceGiftBuyer Audience = "선물용 구매"
)

// Platform is where a promotional post will be published. The label carries
// the tone hint shown to the user.
type Platform string

const (
	PlatformInstagram Platform = "인스타그램 (감성+짧게)"
	PlatformNaverBlog Platform = "네이버 블로그 (정보+길게)"
	PlatformDaangn    Platform = "당근마켓 (친근하게)"
)

// Validation errors for post requests.
var (
	ErrEmptyProductInfo = errors.New("product info is required")
	ErrUnknownAudience  = errors.New("unknown target audience")
	ErrUnknownPlatform  = errors.New("unknown platform")
)

const dateLayout = "2006년 01월 02일"

const ideaTemplate = `
당신은 아레나 수영복 매장의 유능한 마케팅 팀장입니다.
오늘 날짜(%s, %s요일)와 현재 시즌을 고려해서,
사장님에게 실행 가능한 마케팅 아이디어 3가지를 정중하고 열정적으로 제안해주세요.
매장은 구로역 NC백화점에 있으며, 최근 주변 수영장 리모델링 오픈 이슈가 있습니다.
`

const postTemplate = `
역할: 아레나 NC구로점 온라인 마케터
상품 및 상황: %s
타겟: %s
플랫폼: %s

위 조건에 맞춰 매력적인 홍보글을 작성해주세요.
`

var weekdayLabels = map[string]string{
	"Monday":    "월",
	"Tuesday":   "화",
	"Wednesday": "수",
	"Thursday":  "목",
	"Friday":    "금",
	"Saturday":  "토",
	"Sunday":    "일",
}

// Audiences returns every audience in display order.
func Audiences() []Audience {
	return []Audience{AudienceBeginner, AudienceAdvanced, AudienceTraveler, AudienceGiftBuyer}
}

// Platforms returns every platform in display order.
func Platforms() []Platform {
	return []Platform{PlatformInstagram, PlatformNaverBlog, PlatformDaangn}
}

// ParseAudience maps a form label to its Audience.
func ParseAudience(label string) (Audience, error) {
	for _, a := range Audiences() {
		if string(a) == label {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAudience, label)
}

// ParsePlatform maps a form label to its Platform.
func ParsePlatform(label string) (Platform, error) {
	for _, p := range Platforms() {
		if string(p) == label {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, label)
}

// WeekdayLabel returns the one-character Korean label for an English weekday
// name. Unknown names are returned unchanged.
func WeekdayLabel(weekday string) string {
	if label, ok := weekdayLabels[weekday]; ok {
		return label
	}
	return weekday
}

// FormatDate renders t as "YYYY년 MM월 DD일".
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// IdeaContext is the input of the daily marketing idea prompt.
type IdeaContext struct {
	Date    time.Time
	Weekday string // English weekday name, e.g. "Monday"
}

// NewIdeaContext captures the date and weekday of now in its own location.
func NewIdeaContext(now time.Time) IdeaContext {
	return IdeaContext{Date: now, Weekday: now.Weekday().String()}
}

// Prompt builds the idea prompt for this context.
func (c IdeaContext) Prompt() string {
	return BuildIdeaPrompt(c.Date, c.Weekday)
}

// BuildIdeaPrompt asks for three actionable marketing ideas for the given day.
func BuildIdeaPrompt(date time.Time, weekday string) string {
	return fmt.Sprintf(ideaTemplate, FormatDate(date), WeekdayLabel(weekday))
}

// PostContext is the input of the promotional post prompt.
type PostContext struct {
	ProductInfo string
	Audience    Audience
	Platform    Platform
}

// NewPostContext parses raw form values into a validated PostContext.
func NewPostContext(productInfo, audience, platform string) (PostContext, error) {
	c := PostContext{ProductInfo: productInfo, Audience: Audience(audience), Platform: Platform(platform)}
	if err := c.Validate(); err != nil {
		return PostContext{}, err
	}
	return c, nil
}

// Validate reports whether the context can be turned into a request. An empty
// product description is reported before unknown options.
func (c PostContext) Validate() error {
	if strings.TrimSpace(c.ProductInfo) == "" {
		return ErrEmptyProductInfo
	}
	if _, err := ParseAudience(string(c.Audience)); err != nil {
		return err
	}
	if _, err := ParsePlatform(string(c.Platform)); err != nil {
		return err
	}
	return nil
}

// Prompt builds the post prompt for this context.
func (c PostContext) Prompt() string {
	return BuildPostPrompt(c.ProductInfo, c.Audience, c.Platform)
}

// BuildPostPrompt asks for a promotional post tailored to audience and platform.
func BuildPostPrompt(productInfo string, audience Audience, platform Platform) string {
	return fmt.Sprintf(postTemplate, productInfo, audience, platform)
}
