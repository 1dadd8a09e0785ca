package stack

import (
	"sort"

	"github.com/samber/lo"

	"github.com/gammadia/furnace/resource"
	"github.com/gammadia/furnace/state"
)

// Record converts a stack snapshot to its persisted wire representation.
func (s *Stack) Record() *state.StackRecord {
	return recordFromStack(s)
}

func recordFromStack(s *Stack) *state.StackRecord {
	resources := lo.Map(lo.Values(s.Resources), func(res *ResourceState, _ int) state.ResourceRecord {
		return state.ResourceRecord{
			Name:         res.Name,
			Type:         res.Type,
			PhysicalID:   res.PhysicalID,
			Status:       res.Status.String(),
			StatusReason: res.StatusReason,
			Properties:   res.Properties,
			Deps:         res.Deps,
			Retain:       res.Retain,
		}
	})
	sort.Slice(resources, func(i, j int) bool { return resources[i].Name < resources[j].Name })

	return &state.StackRecord{
		ID:           s.ID,
		Name:         s.Name,
		Status:       s.Status.String(),
		StatusReason: s.StatusReason,

		TemplateSource: s.TemplateSource,
		TemplateFormat: string(s.TemplateFormat),
		Parameters:     s.Parameters,

		Resources: resources,
		Outputs:   s.Outputs,

		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func stackFromRecord(record *state.StackRecord) *Stack {
	return &Stack{
		ID:           record.ID,
		Name:         record.Name,
		Status:       Status(record.Status),
		StatusReason: record.StatusReason,

		TemplateSource: record.TemplateSource,
		TemplateFormat: TemplateFormat(record.TemplateFormat),
		Parameters:     record.Parameters,

		Resources: lo.SliceToMap(record.Resources, func(res state.ResourceRecord) (string, *ResourceState) {
			return res.Name, &ResourceState{
				Name:         res.Name,
				Type:         res.Type,
				PhysicalID:   res.PhysicalID,
				Status:       Status(res.Status),
				StatusReason: res.StatusReason,
				Properties:   resource.Properties(res.Properties),
				Deps:         res.Deps,
				Retain:       res.Retain,
			}
		}),
		Outputs: record.Outputs,

		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}
