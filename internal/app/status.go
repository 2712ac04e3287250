package app

// RegionStatus is the read-only projection of a region.
type RegionStatus struct {
	Name       string   `json:"name"`
	Node       string   `json:"node,omitempty"`
	State      string   `json:"state"`
	Engine     string   `json:"engine"`
	CompatID   string   `json:"compat_id,omitempty"`
	Image      string   `json:"image,omitempty"`
	Interfaces []string `json:"interfaces"`
}

// InterfaceStatus is the read-only projection of an interface.
type InterfaceStatus struct {
	Name  string `json:"name"`
	Node  string `json:"node"`
	State string `json:"state"`
	Held  bool   `json:"held"`
}

// Status is the full status projection.
type Status struct {
	Regions    []RegionStatus    `json:"regions"`
	Interfaces []InterfaceStatus `json:"interfaces"`
}

// RegionStatuses projects every registered region, sorted by name.
func (a *App) RegionStatuses() []RegionStatus {
	regions := a.registry.Regions()
	out := make([]RegionStatus, 0, len(regions))
	for _, r := range regions {
		s := RegionStatus{
			Name:       r.Name(),
			State:      r.State().String(),
			Engine:     r.Engine().Name(),
			CompatID:   r.CompatString(),
			Interfaces: []string{},
		}
		if n := r.Node(); n != nil {
			s.Node = n.Path().String()
		}
		if info := r.Info(); info != nil {
			s.Image = info.Name
		}
		for _, iface := range r.Interfaces() {
			s.Interfaces = append(s.Interfaces, iface.Name())
		}
		out = append(out, s)
	}
	return out
}

// InterfaceStatuses projects every registered interface, sorted by node.
func (a *App) InterfaceStatuses() []InterfaceStatus {
	ifaces := a.registry.Interfaces()
	out := make([]InterfaceStatus, 0, len(ifaces))
	for _, iface := range ifaces {
		out = append(out, InterfaceStatus{
			Name:  iface.Name(),
			Node:  iface.Node().String(),
			State: iface.State(),
			Held:  iface.Held(),
		})
	}
	return out
}

// Status returns the full projection.
func (a *App) Status() Status {
	return Status{Regions: a.RegionStatuses(), Interfaces: a.InterfaceStatuses()}
}
