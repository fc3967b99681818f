package questionnaire

import "github.com/yoockh/futureself/internal/models"

// Step indexes the wizard screens.
type Step int

const (
	StepDemographics Step = iota
	StepValues
	StepPersonality
)

const StepCount = 3

func (s Step) Valid() bool { return s >= StepDemographics && s <= StepPersonality }

type stepCopy struct {
	Title       string
	Description string
}

var stepCatalog = [StepCount]stepCopy{
	{"基本信息", "基础背景、教育与工作情况，建立初始画像。"},
	{"价值观收集 (PVQ-10)", "识别核心驱动力与价值排序，锁定内在坐标。"},
	{"大五人格测试 (BFI-5)", "快速了解人格维度，辅助匹配未来角色。"},
}

// Option is one selectable value of an enumerated field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var GenderOptions = []Option{
	{string(models.GenderMale), "男"},
	{string(models.GenderFemale), "女"},
	{string(models.GenderOther), "其他"},
}

var StatusOptions = []Option{
	{string(models.WorkStatusStudent), "在校生 / 刚毕业"},
	{string(models.WorkStatusJobSeeking), "求职中 / 转职中"},
	{string(models.WorkStatusEmployed), "全职在职"},
	{string(models.WorkStatusFreelancer), "自由职业 / 创业中"},
	{string(models.WorkStatusOther), "其他状态"},
}

// InterestOptions are the tags offered by the demographics form. Tags never
// contain the wire delimiter.
var InterestOptions = []string{
	"产品设计",
	"用户研究",
	"数据分析",
	"创业管理",
	"教育咨询",
	"科技创新",
	"心理辅导",
	"写作表达",
}
