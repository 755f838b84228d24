package domain

type AgentID string

const (
	AgentRatios   AgentID = "ratios_agent"
	AgentTechPlot AgentID = "techplot_agent"
	AgentCompInfo AgentID = "compinfo_agent"
)

// KnownAgents lists every worker identifier a dispatch plan may name, in
// the order they are described to the classifier.
func KnownAgents() []AgentID {
	return []AgentID{AgentRatios, AgentTechPlot, AgentCompInfo}
}

func (a AgentID) Valid() bool {
	switch a {
	case AgentRatios, AgentTechPlot, AgentCompInfo:
		return true
	default:
		return false
	}
}

type Sender string

const (
	SenderUser       Sender = "user"
	SenderSupervisor Sender = "supervisor"
	SenderRatios     Sender = Sender(AgentRatios)
	SenderTechPlot   Sender = Sender(AgentTechPlot)
	SenderCompInfo   Sender = Sender(AgentCompInfo)
	SenderSystem     Sender = "system"
)

func (s Sender) Valid() bool {
	switch s {
	case SenderUser, SenderSupervisor, SenderRatios, SenderTechPlot, SenderCompInfo, SenderSystem:
		return true
	default:
		return false
	}
}

func SenderForAgent(id AgentID) Sender {
	return Sender(id)
}

// Role only drives downstream formatting of the conversation; it never
// affects routing.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)
