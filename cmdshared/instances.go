package cmdshared

import (
	"context"
	"fmt"
	"os"

	"github.com/packlaunch/packlaunch/instance"
	"github.com/packlaunch/packlaunch/minecraft"
)

// LoadInstance finds an instance by name, migrating it if it is in the legacy format, and exits if there is none
func LoadInstance(ctx context.Context, name string) *instance.Instance {
	instances, err := instance.List(ctx, minecraft.DefaultClient)
	if err != nil {
		fmt.Printf("Error loading instances: %v\n", err)
		os.Exit(1)
	}
	inst, err := instance.Find(instances, name)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return inst
}
