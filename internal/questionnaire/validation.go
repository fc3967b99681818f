package questionnaire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yoockh/futureself/internal/models"
)

const (
	MinAge = 18
	MaxAge = 100

	MinValueScore = 1
	MaxValueScore = 5

	MinTraitScore = 1.0
	MaxTraitScore = 5.0
)

// ValidateDemographics returns one message per missing or invalid field, in
// form order. An unset age and an out-of-range age share one message.
func ValidateDemographics(p models.DemographicProfile) []string {
	var errs []string
	if blank(p.Name) {
		errs = append(errs, "请输入姓名")
	}
	if p.Age < MinAge || p.Age > MaxAge {
		errs = append(errs, fmt.Sprintf("年龄必须在%d-%d之间", MinAge, MaxAge))
	}
	if !p.Gender.Valid() {
		errs = append(errs, "请选择性别")
	}
	if !p.Status.Valid() {
		errs = append(errs, "请选择当前状态")
	}
	if blank(p.Field) {
		errs = append(errs, "请输入专业领域")
	}
	if len(p.Interests.Normalize()) == 0 {
		errs = append(errs, "请至少选择一个兴趣方向")
	}
	if blank(p.Location) {
		errs = append(errs, "请输入当前位置")
	}
	if blank(p.FutureLocation) {
		errs = append(errs, "请输入期望位置")
	}
	return errs
}

// ValidateValues flags every value dimension outside 1-5. Zero means unset
// and is reported the same way.
func ValidateValues(v models.ValuesProfile) []string {
	var errs []string
	for _, s := range v.Scores() {
		if s.Score < MinValueScore || s.Score > MaxValueScore {
			errs = append(errs, fmt.Sprintf("%s 必须是%d-%d之间的数字", s.Name, MinValueScore, MaxValueScore))
		}
	}
	return errs
}

func ValidatePersonality(p models.PersonalityProfile) []string {
	var errs []string
	for _, s := range p.Scores() {
		if s.Score < MinTraitScore || s.Score > MaxTraitScore {
			errs = append(errs, fmt.Sprintf("%s 必须是1.0-5.0之间的数字", s.Name))
		}
	}
	return errs
}

const (
	MaxFutureProfiles    = 3
	MaxProfileNameLength = 100
	MinFutureTextLength  = 10
	MaxFutureTextLength  = 2000
)

// FutureProfilesForm is the future-profile submission. Its binding tags are
// checked by gin on the way in and by ValidateFutureProfiles in services.
type FutureProfilesForm struct {
	Profiles []models.FutureProfileItem `json:"profiles" binding:"required,min=1,max=3,dive"`
}

// formValidator reads the same binding tags gin does.
var formValidator = func() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}()

// ValidateFutureProfiles checks a future-profile submission after trimming
// every field: one to three items, each with a name and three free-text
// answers of bounded length.
func ValidateFutureProfiles(items []models.FutureProfileItem) []string {
	form := FutureProfilesForm{}
	for _, it := range items {
		form.Profiles = append(form.Profiles, models.FutureProfileItem{
			ProfileName:     strings.TrimSpace(it.ProfileName),
			FutureValues:    strings.TrimSpace(it.FutureValues),
			FutureVision:    strings.TrimSpace(it.FutureVision),
			FutureObstacles: strings.TrimSpace(it.FutureObstacles),
		})
	}
	if err := formValidator.Struct(form); err != nil {
		return FutureProfileMessages(err)
	}
	return nil
}

var futureTextLabels = map[string]string{
	"FutureValues":    "未来价值观",
	"FutureVision":    "未来愿景",
	"FutureObstacles": "未来障碍",
}

// FutureProfileMessages turns binding failures on a FutureProfilesForm into
// screen messages, one per failing field.
func FutureProfileMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"请求格式不正确"}
	}
	var out []string
	for _, fe := range verrs {
		n := itemNumber(fe.Namespace())
		switch field := fe.StructField(); {
		case field == "Profiles" && fe.Tag() == "max":
			out = append(out, fmt.Sprintf("最多只能填写%d个未来人设", MaxFutureProfiles))
		case field == "Profiles":
			out = append(out, "请至少填写一个未来人设")
		case field == "ProfileName":
			out = append(out, fmt.Sprintf("人设%d: 名称必须为1-%d个字符", n, MaxProfileNameLength))
		case futureTextLabels[field] != "":
			out = append(out, fmt.Sprintf("人设%d: %s必须为%d-%d个字符", n, futureTextLabels[field], MinFutureTextLength, MaxFutureTextLength))
		default:
			out = append(out, fmt.Sprintf("人设%d: %s无效", n, fe.Field()))
		}
	}
	return out
}

// itemNumber reads the 1-based item from a namespace like
// "FutureProfilesForm.Profiles[1].FutureVision".
func itemNumber(ns string) int {
	open := strings.Index(ns, "[")
	end := strings.Index(ns, "]")
	if open < 0 || end < open {
		return 0
	}
	i, err := strconv.Atoi(ns[open+1 : end])
	if err != nil {
		return 0
	}
	return i + 1
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
