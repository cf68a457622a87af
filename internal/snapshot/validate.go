package snapshot

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError 字段级校验错误，Field 为 JSON 路径（如 fights[3].fighter2Id）
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string { return e.Field + ": " + e.Message }

// snapshotValidate 快照校验器实例，init 中注册自定义规则
var snapshotValidate *validator.Validate

var fightTimePattern = regexp.MustCompile(`^\d{1,2}:[0-5]\d$`)

func init() {
	snapshotValidate = validator.New(validator.WithRequiredStructEnabled())

	// 错误路径使用 JSON 字段名，便于爬虫侧定位
	snapshotValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = snapshotValidate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
	_ = snapshotValidate.RegisterValidation("fighttime", func(fl validator.FieldLevel) bool {
		return fightTimePattern.MatchString(fl.Field().String())
	})
	snapshotValidate.RegisterStructValidation(validateFightWinner, Fight{})
}

// validateFightWinner 胜者必须是本场两名选手之一（爬虫侧 id 比较，不涉及规范顺序）
func validateFightWinner(sl validator.StructLevel) {
	f := sl.Current().Interface().(Fight)
	if f.WinnerID == nil || *f.WinnerID == "" {
		return
	}
	if *f.WinnerID != f.Fighter1ID && *f.WinnerID != f.Fighter2ID {
		sl.ReportError(f.WinnerID, "winnerId", "WinnerID", "winner", "")
	}
}

// Validate 校验快照结构，返回全部字段级错误；nil 表示通过
func Validate(s *Snapshot) []FieldError {
	if s == nil {
		return []FieldError{{Field: "", Message: "快照为空"}}
	}
	err := snapshotValidate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   strings.TrimPrefix(fe.Namespace(), "Snapshot."),
			Message: describe(fe),
		})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "必填"
	case "max":
		return fmt.Sprintf("长度或数值不能超过 %s", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("不能小于 %s", fe.Param())
	case "lte":
		return fmt.Sprintf("不能大于 %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("必须是以下之一: %s", fe.Param())
	case "nefield":
		return "两名选手不能相同"
	case "isodate":
		return "日期格式无法识别"
	case "fighttime":
		return "时间格式应为 M:SS"
	case "winner":
		return "胜者必须是本场两名选手之一"
	default:
		return fmt.Sprintf("校验失败: %s", fe.Tag())
	}
}
