package modrinth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	modrinthApi "codeberg.org/jmansfield/go-modrinth/modrinth"
	"github.com/packlaunch/packlaunch/cmdshared"
	"github.com/packlaunch/packlaunch/install"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:     "add <instance> [URL|slug|search]",
	Short:   "Add a project from a Modrinth URL, slug/project ID or search to an instance",
	Aliases: []string{"install", "get"},
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		inst := cmdshared.LoadInstance(ctx, args[0])
		args = args[1:]

		projectID := viper.GetString("modrinth.add.project-id")
		versionID := viper.GetString("modrinth.add.version-id")
		versionFilename := viper.GetString("modrinth.add.version-filename")
		if (projectID != "" || versionID != "") && len(args) != 0 {
			fmt.Println("--project-id and --version-id cannot be used with a separately specified URL/slug/search term")
			os.Exit(1)
		}
		if len(args) == 0 && projectID == "" && versionID == "" {
			fmt.Println("You must specify a project; with the ID flags, or by passing a URL, slug or search term directly.")
			os.Exit(1)
		}

		a := adder{ctx: ctx, inst: inst, filename: versionFilename}
		var err error
		switch {
		case versionID != "":
			err = a.addVersionByID(versionID)
		case projectID != "":
			err = a.addProjectByID(projectID, "")
		default:
			err = a.addFromArgs(args)
		}
		if err != nil {
			if errors.Is(err, install.ErrCancelled) {
				fmt.Println("Cancelled!")
				return
			}
			fmt.Printf("Failed to add project: %s\n", err)
			os.Exit(1)
		}
	},
}

// adder adds Modrinth projects and their required dependencies to one instance
type adder struct {
	ctx      context.Context
	inst     *instance.Instance
	filename string
}

func (a adder) addFromArgs(args []string) error {
	if len(args) == 1 {
		ref, ok, err := parseSlugOrUrl(args[0])
		if err != nil {
			return fmt.Errorf("failed to parse URL: %w", err)
		}
		if ok {
			if a.filename == "" {
				a.filename = ref.Filename
			}
			if ref.VersionID != "" {
				return a.addVersionByID(ref.VersionID)
			}
			err = a.addProjectByID(ref.Slug, ref.Version)
			// Bare words that aren't a project are searched for instead
			if err == nil || !ref.BareSlug {
				return err
			}
		}
	}
	return a.addViaSearch(strings.Join(args, " "))
}

func (a adder) addVersionByID(versionID string) error {
	version, err := client.Versions.Get(versionID)
	if err != nil {
		return fmt.Errorf("failed to fetch version %s: %w", versionID, err)
	}
	project, err := client.Projects.Get(*version.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to fetch project %s: %w", *version.ProjectID, err)
	}
	return a.addVersion(project, version)
}

func (a adder) addProjectByID(id string, version string) error {
	// Modrinth handles slugs and project IDs the same way
	project, err := client.Projects.Get(id)
	if err != nil {
		return err
	}
	if version != "" {
		versionData, err := resolveVersion(project, version)
		if err != nil {
			return err
		}
		return a.addVersion(project, versionData)
	}
	return a.addProject(project)
}

func (a adder) addViaSearch(query string) error {
	fmt.Println("Searching Modrinth...")
	results, err := searchProjects(query, a.inst.Launcher.Minecraft)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return errors.New("no projects found")
	}
	titles := make([]string, len(results))
	for i, v := range results {
		// Title is a required field
		titles[i] = *v.Title
	}
	n, err := cmdshared.ChooseOne(titles)
	if err != nil {
		return err
	}
	if n < 0 {
		return install.ErrCancelled
	}
	project, err := client.Projects.Get(*results[n].ProjectID)
	if err != nil {
		return err
	}
	return a.addProject(project)
}

func (a adder) addProject(project *modrinthApi.Project) error {
	latestVersion, err := getLatestVersion(*project.ID, *project.Title, a.inst)
	if err != nil {
		return err
	}
	return a.addVersion(project, latestVersion)
}

// dependency is a project some added version needs, with the version and file of it to install
type dependency struct {
	project *modrinthApi.Project
	version *modrinthApi.Version
	file    *modrinthApi.File
}

func (a adder) addVersion(project *modrinthApi.Project, version *modrinthApi.Version) error {
	file := primaryFile(version, a.filename)
	if file == nil {
		return errors.New("version doesn't have any files attached")
	}

	deps, err := a.findDependencies(version)
	if err != nil {
		return err
	}
	if len(deps) > 0 {
		fmt.Println("Required dependencies:")
		for _, d := range deps {
			fmt.Println("  " + *d.project.Title)
		}
		if cmdshared.PromptYesNo("Add them as well? [Y/n]: ") {
			for _, d := range deps {
				m, err := a.addFile(d.project, d.version, d.file)
				if err != nil {
					return err
				}
				fmt.Printf("Added dependency %s (%s)\n", m.Name, m.File)
			}
		}
	}

	m, err := a.addFile(project, version, file)
	if err != nil {
		return err
	}
	fmt.Printf("Added %s (%s)\n", m.Name, m.File)
	return nil
}

// maxDependencyDepth bounds how many rounds of dependencies of dependencies are looked up
const maxDependencyDepth = 20

// findDependencies resolves the required dependencies of a version that the instance doesn't have yet, along with
// their own dependencies
func (a adder) findDependencies(version *modrinthApi.Version) ([]dependency, error) {
	known := make(map[string]bool)
	for _, m := range a.inst.Launcher.Mods {
		if m.Modrinth != nil {
			known[m.Modrinth.ProjectID] = true
		}
	}
	isQuilt := slices.Contains(instanceLoaders(a.inst), "quilt")
	mcVersion := a.inst.Launcher.Minecraft

	var found []dependency
	var projectIDs, versionIDs []string
	queue := func(v *modrinthApi.Version) {
		for _, dep := range v.Dependencies {
			switch {
			case dep.DependencyType == nil || *dep.DependencyType != "required":
			case dep.VersionID != nil:
				versionIDs = append(versionIDs, *dep.VersionID)
			case dep.ProjectID != nil:
				projectIDs = append(projectIDs, mapDepOverride(*dep.ProjectID, isQuilt, mcVersion))
			}
		}
	}
	queue(version)
	if len(projectIDs)+len(versionIDs) == 0 {
		return nil, nil
	}
	fmt.Println("Finding dependencies...")

	for depth := 0; len(projectIDs)+len(versionIDs) > 0; depth++ {
		if depth == maxDependencyDepth {
			return nil, errors.New("dependencies recurse too deeply")
		}
		if len(versionIDs) > 0 {
			versions, err := client.Versions.GetMultiple(versionIDs)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch dependency versions: %w", err)
			}
			for _, v := range versions {
				projectIDs = append(projectIDs, mapDepOverride(*v.ProjectID, isQuilt, mcVersion))
			}
			versionIDs = nil
		}

		// A project can be asked for twice, by ID and by slug, or as both Fabric API and its Quilt replacement
		var pending []string
		for _, id := range projectIDs {
			if !known[id] && !slices.Contains(pending, id) {
				pending = append(pending, id)
			}
		}
		projectIDs = nil
		if len(pending) == 0 {
			break
		}
		projects, err := client.Projects.GetMultiple(pending)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch dependencies: %w", err)
		}
		for _, p := range projects {
			if p.ID == nil || p.Title == nil {
				return nil, errors.New("failed to fetch dependencies: invalid response")
			}
			known[*p.ID] = true
			if p.Slug != nil {
				known[*p.Slug] = true
			}
			latest, err := getLatestVersion(*p.ID, *p.Title, a.inst)
			if err != nil {
				fmt.Printf("Skipping dependency %s: %v\n", *p.Title, err)
				continue
			}
			queue(latest)
			if file := primaryFile(latest, ""); file != nil {
				found = append(found, dependency{project: p, version: latest, file: file})
			}
		}
	}
	return found, nil
}

func (a adder) addFile(project *modrinthApi.Project, version *modrinthApi.Version, file *modrinthApi.File) (*instance.DisableableMod, error) {
	m, err := toDisableableMod(project, version, file, instanceLoaders(a.inst))
	if err != nil {
		return nil, err
	}
	return install.AddMod(a.ctx, a.inst, m)
}

func toDisableableMod(project *modrinthApi.Project, version *modrinthApi.Version, file *modrinthApi.File, instLoaders []string) (instance.DisableableMod, error) {
	if file.URL == nil || file.Filename == nil {
		return instance.DisableableMod{}, errors.New("file is missing a download URL or name")
	}
	typ, err := modTypeFor(*project.ProjectType, version.Loaders, instLoaders)
	if err != nil {
		return instance.DisableableMod{}, err
	}
	algorithm, hash := getBestHash(file)
	if algorithm == "" {
		return instance.DisableableMod{}, errors.New("file doesn't have a hash")
	}
	m := instance.DisableableMod{
		Name:        *project.Title,
		File:        *file.Filename,
		Type:        typ,
		Modrinth:    &instance.ModrinthRef{ProjectID: *project.ID, VersionID: *version.ID},
		DownloadURL: *file.URL,
		Hash:        hash,
		HashType:    algorithm,
	}
	if version.VersionNumber != nil {
		m.Version = *version.VersionNumber
	}
	if project.Description != nil {
		m.Description = *project.Description
	}
	return m, nil
}

func init() {
	modrinthCmd.AddCommand(installCmd)

	installCmd.Flags().String("project-id", "", "The Modrinth project ID to use")
	installCmd.Flags().String("version-id", "", "The Modrinth version ID to use")
	installCmd.Flags().String("version-filename", "", "The Modrinth version filename to use")
	_ = viper.BindPFlag("modrinth.add.project-id", installCmd.Flags().Lookup("project-id"))
	_ = viper.BindPFlag("modrinth.add.version-id", installCmd.Flags().Lookup("version-id"))
	_ = viper.BindPFlag("modrinth.add.version-filename", installCmd.Flags().Lookup("version-filename"))
}
