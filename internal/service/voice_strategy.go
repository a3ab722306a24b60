// Package service 包含了应用的业务逻辑层。
package service

import (
	"salescoach-go/internal/model"
	"strings"
)

// 预置语音库中各条语音的标识。
const (
	voiceMaleYoungDynamic   = "T9VNN91AsQKnhGF6hTi8" // 男声 - 动感 - 偏年轻
	voiceMaleYoungRealistic = "xlVRtVJbKuO2nwbbopa2" // 男声 - 很真实 - 偏年轻
	voiceMaleMatureDeep     = "BVBq6HVJVdnwOMJOqvy9" // 男声 - 成熟低沉 - 高职位
	voiceMaleYoungEnergetic = "3Kfr7NbSVkpOWCWA4Zgu" // 男声 - 年轻有活力
	voiceFemaleYoungDynamic = "F1toM6PcP54s45kOOAyV" // 女声 - 偏年轻 - 动感
)

// VoiceSelector 根据画像特征选择一个语音标识。
// 作为可替换的策略函数注入开通服务，便于单测与替换，不影响编排流程。
type VoiceSelector func(agent *model.Agent) string

// DefaultVoiceSelector 是默认的启发式语音选择策略。
// 画像指定了固定语音时直接使用；否则按职位关键词与难度分桶：
// 资深/管理层或难度 difficile 用成熟低沉声，初级或难度 facile 用年轻活力声，
// 其余情况用默认的年轻动感声。仅是打平策略，不是硬性要求。
func DefaultVoiceSelector(agent *model.Agent) string {
	if agent.VoiceID != "" {
		return agent.VoiceID
	}

	jobTitle := strings.ToLower(agent.JobTitle)
	isJunior := strings.Contains(jobTitle, "junior") || agent.Difficulty == model.DifficultyEasy
	isSenior := strings.Contains(jobTitle, "senior") ||
		strings.Contains(jobTitle, "manager") ||
		strings.Contains(jobTitle, "directeur") ||
		agent.Difficulty == model.DifficultyHard

	if isSenior {
		return voiceMaleMatureDeep
	}
	if isJunior {
		return voiceMaleYoungEnergetic
	}
	return voiceMaleYoungDynamic
}
