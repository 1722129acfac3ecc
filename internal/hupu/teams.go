package hupu

// DefaultTeams are the Chinese NBA team names the sub-groups endpoint reports.
var DefaultTeams = []string{
	"湖人", "勇士", "凯尔特人", "热火", "公牛", "掘金", "篮网", "快船",
	"太阳", "雄鹿", "步行者", "独行侠", "爵士", "火箭", "奇才", "老鹰",
	"雷霆", "魔术", "黄蜂", "鹈鹕", "开拓者", "马刺", "76人", "猛龙",
	"国王", "灰熊",
}

// TeamSet is an exact-match lookup of known team names.
type TeamSet map[string]struct{}

// NewTeamSet builds a set from names. An empty input falls back to DefaultTeams.
func NewTeamSet(names []string) TeamSet {
	if len(names) == 0 {
		names = DefaultTeams
	}
	set := make(TeamSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Contains reports whether name is a known team.
func (s TeamSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}
