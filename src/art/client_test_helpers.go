package art

// SetCAAClient sets the underlying Cover Art Archive client. Only useful for
// tests.
func (p *MusicBrainzProvider) SetCAAClient(caac CAAClient) {
	p.caaClient = caac
}

// SetMusicBrainzAPIURL sets the MusicBrainz API URL. Only useful for tests.
func (p *MusicBrainzProvider) SetMusicBrainzAPIURL(apiURL string) {
	p.musicBrainzAPIHost = apiURL
}

// SetMusicBrainzAPIURL sets the MusicBrainz API URL. Only useful for tests.
func (p *FanartProvider) SetMusicBrainzAPIURL(apiURL string) {
	p.musicBrainzAPIHost = apiURL
}

// SetFanartAPIURL sets the fanart.tv API URL. Only useful for tests.
func (p *FanartProvider) SetFanartAPIURL(apiURL string) {
	p.fanartAPIHost = apiURL
}

// SetLastFmAPIURL sets the Last.fm API URL. Only useful for tests.
func (p *LastFmProvider) SetLastFmAPIURL(apiURL string) {
	p.lastFmAPIHost = apiURL
}
