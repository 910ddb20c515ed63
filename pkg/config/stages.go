package config

// StagesConfig partitions the CRM pipeline-stage labels into the operational
// buckets every funnel metric is built on. The lists are tenant configuration;
// the defaults below are the standard sales pipeline. Membership checks must
// always go through a normalized comparison (trim + case fold), since the CRM
// labels have historically carried trailing-whitespace variants.
type StagesConfig struct {
	Known             []string `envconfig:"BOS_STAGES_KNOWN"`
	ToQualify         []string `envconfig:"BOS_STAGES_TO_QUALIFY"`
	Qualified         []string `envconfig:"BOS_STAGES_QUALIFIED"`
	Won               []string `envconfig:"BOS_STAGES_WON"`
	LostSetting       []string `envconfig:"BOS_STAGES_LOST_SETTING"`
	LostClosing       []string `envconfig:"BOS_STAGES_LOST_CLOSING"`
	InProgressSetting []string `envconfig:"BOS_STAGES_IN_PROGRESS_SETTING"`
	InProgressClosing []string `envconfig:"BOS_STAGES_IN_PROGRESS_CLOSING"`
}

func (s *StagesConfig) applyDefaults() {
	if len(s.ToQualify) == 0 {
		s.ToQualify = []string{
			"Nuova Opportunità",
			"Prova Gratuita",
			"Senza risposta",
			"App Tel Fissato",
			"Risposto/Da richiamare",
		}
	}
	if len(s.InProgressSetting) == 0 {
		s.InProgressSetting = []string{
			"Autonomo - Call Onboarding",
			"Call onboarding",
			"Cancellati - Da riprogrammare",
			"No Show - Ghost",
		}
	}
	if len(s.InProgressClosing) == 0 {
		s.InProgressClosing = []string{
			"Seconda call / demo",
			"Preventivo Mandato / Follow Up",
		}
	}
	if len(s.Won) == 0 {
		s.Won = []string{
			"Vinto Abbonamento Mensile",
			"Vinto Abbonamento Annuale",
			"Vinto mensile con acc.impresa",
			"Vinto annuale con acc.impresa",
			"Vinti generici",
		}
	}
	if len(s.LostSetting) == 0 {
		s.LostSetting = []string{
			"Numero Non corretto flusso di email marketing",
			"Fuori target",
			"Lead Perso (10 tentativi non risp)",
		}
	}
	if len(s.LostClosing) == 0 {
		s.LostClosing = []string{
			"Non Pronto (in target)",
			"Cliente Non vinto",
		}
	}
	if len(s.Qualified) == 0 {
		s.Qualified = append(append(append(
			[]string{},
			s.InProgressSetting...),
			s.InProgressClosing...),
			append(append([]string{}, s.Won...),
				"Non Pronto (in target)",
				"Cliente Non vinto",
				"Ag.marketing/collaborazioni")...)
	}
	if len(s.Known) == 0 {
		seen := map[string]struct{}{}
		for _, group := range [][]string{s.ToQualify, s.Qualified, s.LostSetting, {"Ag.marketing/collaborazioni"}} {
			for _, label := range group {
				if _, ok := seen[label]; ok {
					continue
				}
				seen[label] = struct{}{}
				s.Known = append(s.Known, label)
			}
		}
	}
}

// TeamConfig lists the sales team split by role. Used for the
// per-salesperson pipeline breakdown.
type TeamConfig struct {
	Setters []string `envconfig:"BOS_TEAM_SETTERS"`
	Closers []string `envconfig:"BOS_TEAM_CLOSERS"`
}

func (t *TeamConfig) applyDefaults() {
	if len(t.Setters) == 0 {
		t.Setters = []string{"Jacqueline Sanchez", "Valeria Di Giacomo", "Valentina Ferrari"}
	}
	if len(t.Closers) == 0 {
		t.Closers = []string{"Daniel Prigioni", "Paolo Mancusi", "Fabio Tavella", "Federico Mancini"}
	}
}
