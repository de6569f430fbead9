package render

import (
	"github.com/a1s/lazyrows/internal/dao"
	"github.com/a1s/lazyrows/internal/model1"
)

// ForResource returns the renderer for a source kind. Explicit columns narrow
// the dedicated renderer when it has them all, and select the generic renderer
// otherwise.
func ForResource(rid dao.ResourceID, cols []string) model1.Renderer {
	r := forResource(rid)
	if len(cols) == 0 {
		return r
	}
	if _, ok := r.(*Generic); !ok {
		if c, err := NewCustomized(r, cols); err == nil {
			return c
		}
	}

	return NewGeneric(cols)
}

func forResource(rid dao.ResourceID) model1.Renderer {
	switch rid {
	case dao.S3ObjectRID:
		return new(S3Object)
	case dao.EC2InstanceRID:
		return new(EC2Instance)
	case dao.IAMUserRID:
		return new(IAMUser)
	case dao.CFNStackRID:
		return new(CFNStack)
	case dao.EKSClusterRID:
		return NewGeneric([]string{"NAME", "REGION"})
	case dao.CloudControlRID:
		return NewGeneric([]string{"IDENTIFIER"})
	case dao.SQLTableRID, dao.BoltBucketRID, dao.MemoryRID:
		return NewGeneric([]string{"ID", "NAME", "SIZE", "AGE"})
	default:
		return NewGeneric(nil)
	}
}
