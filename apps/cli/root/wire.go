package root

import (
	"github.com/ruidolp/newposter-sub002/apps/cli/cmd/auth"
	"github.com/ruidolp/newposter-sub002/apps/cli/cmd/bootstrap"
	"github.com/ruidolp/newposter-sub002/apps/cli/cmd/superadmin"
	tenantcmd "github.com/ruidolp/newposter-sub002/apps/cli/cmd/tenant"
)

func init() {
	Root().AddCommand(auth.Command())
	Root().AddCommand(bootstrap.Command())
	Root().AddCommand(superadmin.Command())
	Root().AddCommand(tenantcmd.Command())
}
