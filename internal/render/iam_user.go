package render

import (
	"github.com/a1s/lazyrows/internal/model1"
)

// IAMUser renders IAM users
type IAMUser struct {
	Base
}

// Header returns the IAM user header
func (*IAMUser) Header() model1.Header {
	return model1.Header{
		{Name: "USER-NAME"},
		{Name: "USER-ID"},
		{Name: "PATH"},
		{Name: "ARN", Attrs: model1.Attrs{MaxWidth: 60}},
		{Name: "PASSWORD-LAST-USED"},
		{Name: "AGE", Attrs: model1.Attrs{Time: true}},
	}
}

// Render renders an IAM user to a row
func (*IAMUser) Render(o any, row *model1.Row) error {
	obj, err := asObject(o)
	if err != nil {
		return err
	}
	attrs := obj.GetAttrs()

	row.ID = obj.GetID()
	row.Fields = model1.Fields{
		obj.GetName(),
		attrs["id"],
		attrs["path"],
		attrs["arn"],
		Missing(attrs["password-last-used"]),
		ToAge(obj.GetCreatedAt()),
	}
	return nil
}
