// Package service 包含了应用的业务逻辑层。
package service

import (
	"fmt"
	"salescoach-go/internal/model"
	"strings"
)

// callTypeDescriptions 把通话类型枚举映射为提示词中的法语描述。
var callTypeDescriptions = map[string]string{
	model.CallTypeColdCall:         "Appel commercial à froid",
	model.CallTypeDiscoveryMeeting: "Réunion de découverte",
	model.CallTypeProductDemo:      "Démonstration produit",
	model.CallTypeClosingCall:      "Appel de closing",
	model.CallTypeFollowUpCall:     "Appel de suivi",
}

// CallTypeDescription 返回通话类型的法语描述；未知类型原样返回。
func CallTypeDescription(callType string) string {
	if desc, ok := callTypeDescriptions[callType]; ok {
		return desc
	}
	return callType
}

// BuildPersonaPrompt 从画像与场景配置确定性地渲染系统提示词。
// 相同输入必须得到逐字节相同的输出，不引入任何随机性。
func BuildPersonaPrompt(agent *model.Agent, conversation *model.Conversation) string {
	sector := conversation.Context.Sector
	if sector == "" {
		sector = "Non spécifié"
	}
	company := conversation.Context.Company
	if company == "" {
		company = "Non spécifiée"
	}
	relationHistory := conversation.Context.RelationHistory
	if relationHistory == "" {
		relationHistory = "Premier contact"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Tu es %s, %s.\n", agent.Name, agent.JobTitle))
	sb.WriteString("Si l'utilisateur te dit bonjour, TU DOIS PARLER EN FRANÇAIS !\n")
	sb.WriteString("Personnalité:\n")
	sb.WriteString(fmt.Sprintf("- Attitude: %s\n", agent.Personality.Attitude))
	sb.WriteString(fmt.Sprintf("- Verbalisation: %s\n", agent.Personality.Verbalisation))
	sb.WriteString(fmt.Sprintf("- Écoute: %s\n", agent.Personality.Ecoute))
	sb.WriteString(fmt.Sprintf("- Présence: %s\n", agent.Personality.Presence))
	sb.WriteString(fmt.Sprintf("- Prise de décision: %s\n", agent.Personality.PriseDeDecision))
	sb.WriteString(fmt.Sprintf("Difficulté: %s\n", agent.Difficulty))
	sb.WriteString("\nCONTEXTE DE L'APPEL:\n")
	sb.WriteString(fmt.Sprintf("- Type d'appel: %s\n", CallTypeDescription(conversation.CallType)))
	sb.WriteString(fmt.Sprintf("- Ton secteur dans lequel tu travailles: %s\n", sector))
	sb.WriteString(fmt.Sprintf("- Ton entreprise: %s\n", company))
	sb.WriteString(fmt.Sprintf("- Historique relation avec la personne qui t'appelle: %s\n", relationHistory))
	sb.WriteString(fmt.Sprintf("- Objectif commercial: %s\n", conversation.Goal))
	sb.WriteString("\nINSTRUCTIONS:\n")
	sb.WriteString("1. Reste cohérent avec ta personnalité et ton rôle, tu n'es pas là pour présenter ton entreprise, à moins que l'utilisateur te le demande. C'est toi qui es appelé, donc a priori tu demandes ce que l'utilisateur veut.\n")
	sb.WriteString(fmt.Sprintf("2. Adapte ton attitude selon ta difficulté (%s).\n", agent.Difficulty))
	sb.WriteString("3. Sois assez familier dans ta façon de parler, tu n'es pas un robot, tu dois parler comme un humain.\n")
	sb.WriteString("4. Tu ne connais pas à l'avance le produit que le démarcheur va te présenter - découvre-le naturellement lors de la conversation.\n")
	sb.WriteString("5. Ne révèle jamais que tu es une IA.\n")
	sb.WriteString("6. Ne sois pas formel : ne demande pas au démarcheur d'expliquer ce qu'il veut vendre, c'est à lui de faire la démarche. Tu peux répondre \"Oui allez-y\" ou \"Je suis plutôt intéressé, je peux en savoir plus ?\".\n")
	sb.WriteString("7. Termine l'appel quand la conversation a atteint une conclusion naturelle.")
	return sb.String()
}
