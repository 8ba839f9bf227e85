package browser

// X DOM selectors. X changes its markup often; update these when
// extraction starts returning nothing.

// FirstPostSelectors are tried in order when waiting for a feed to render
var FirstPostSelectors = []string{
	`article[data-testid="tweet"]`,
	`article div[lang]`,
	`div[data-testid="tweetText"]`,
	`[data-testid="cellInnerDiv"]`,
	`article`,
}

// FeedFallbackSelectors indicate a rendered but possibly empty timeline
var FeedFallbackSelectors = []string{
	`div[aria-label="Timeline"]`,
	`section[aria-label]`,
	`main[role="main"]`,
}

const (
	PrimaryColumn   = `div[data-testid="primaryColumn"]`
	ConsentButton   = `div[role="dialog"] button`
	LoginUserInput  = `input[name="text"], input[autocomplete="username"]`
	LoginPassInput  = `input[name="password"]`
	LoggedInSideNav = `[data-testid="SideNav_NewTweet_Button"]`
)

const (
	baseURL  = "https://x.com"
	loginURL = baseURL + "/i/flow/login"
)

// extractScript returns the posts currently in the DOM as a JSON string.
// Media excludes avatars and emoji images.
const extractScript = `() => {
	const out = [];
	const nodes = document.querySelectorAll('article, div[data-testid="tweet"]');
	const metric = /^\d+(?:[,.]\d+)?(?:\s*[KkMmBb])?$/;
	nodes.forEach(n => {
		const textNode = n.querySelector('div[data-testid="tweetText"]') || n.querySelector('div[lang]');
		const content = textNode ? textNode.innerText.trim() : '';

		const statusLink = Array.from(n.querySelectorAll('a[href*="/status/"]'))
			.find(a => a.querySelector('time')) || n.querySelector('a[href*="/status/"]');
		const url = statusLink ? statusLink.getAttribute('href') : '';

		const anchors = Array.from(n.querySelectorAll('a[href^="/"]'));
		const profile = anchors.find(a => !a.getAttribute('href').includes('/status/'));
		let username = profile ? profile.getAttribute('href').slice(1).split(/[/?]/)[0] : '';
		let displayName = '';
		const nameBlock = n.querySelector('[data-testid="User-Name"]');
		if (nameBlock) {
			const spans = Array.from(nameBlock.querySelectorAll('span')).map(s => s.innerText.trim()).filter(Boolean);
			displayName = spans.find(s => !s.startsWith('@')) || '';
			const handle = spans.find(s => s.startsWith('@'));
			if (!username && handle) username = handle.slice(1);
		}

		const time = n.querySelector('time');
		const timestamp = time ? time.getAttribute('datetime') || '' : '';

		const media = [];
		n.querySelectorAll('img').forEach(img => {
			const src = img.src || '';
			if (src.includes('twimg.com/media') && !media.includes(src)) media.push(src);
		});
		n.querySelectorAll('video').forEach(v => {
			if (v.poster && !media.includes(v.poster)) media.push(v.poster);
		});

		const engagement = {};
		['reply', 'retweet', 'like'].forEach(id => {
			const btn = n.querySelector('[data-testid="' + id + '"], [data-testid="un' + id + '"]');
			if (!btn) return;
			const value = Array.from(btn.querySelectorAll('span')).map(s => s.textContent.trim()).find(t => metric.test(t));
			if (value) engagement[id === 'reply' ? 'replies' : id === 'retweet' ? 'retweets' : 'likes'] = value;
		});
		const views = n.querySelector('a[href$="/analytics"]');
		if (views) {
			const value = Array.from(views.querySelectorAll('span')).map(s => s.textContent.trim()).find(t => metric.test(t));
			if (value) engagement.views = value;
		}

		out.push({ url, username, displayName, content, timestamp, media, engagement });
	});
	return JSON.stringify(out);
}`

const scrollScript = `() => { window.scrollBy(0, window.innerHeight); }`

const heightScript = `() => String(document.body.scrollHeight)`

const dismissConsentScript = `() => {
	const btn = Array.from(document.querySelectorAll('div[role="dialog"] button, button'))
		.find(b => /accept all|accept/i.test(b.innerText || ''));
	if (btn) { btn.click(); return "true"; }
	return "false";
}`

// profileScript reads the header of a user page. Location, birth date and
// join date are told apart by their icon paths.
const profileScript = `() => {
	const text = el => el ? el.innerText.trim() : '';
	const p = { name: '', username: '', bio: '', location: '', birthDate: '', joinDate: '', website: '',
		images: { profile_image: '', header_image: '' } };
	const stats = { following: '', followers: '' };

	const nameBlock = document.querySelector('div[data-testid="UserName"]');
	if (nameBlock) {
		const spans = Array.from(nameBlock.querySelectorAll('span')).map(s => s.innerText.trim()).filter(Boolean);
		p.name = spans.find(s => !s.startsWith('@')) || '';
		const handle = spans.find(s => s.startsWith('@'));
		if (handle) p.username = handle.slice(1);
	}
	p.bio = text(document.querySelector('div[data-testid="UserDescription"]'));

	const items = document.querySelector('div[data-testid="UserProfileHeader_Items"]');
	if (items) {
		p.location = text(items.querySelector('[data-testid="UserLocation"]'));
		p.joinDate = text(items.querySelector('[data-testid="UserJoinDate"]'));
		p.birthDate = text(items.querySelector('[data-testid="UserBirthdate"]'));
		const link = items.querySelector('a[data-testid="UserUrl"], a[role="link"]');
		if (link) p.website = link.href || text(link);
		items.querySelectorAll('span[role="presentation"], span').forEach(span => {
			const d = Array.from(span.querySelectorAll('svg path')).map(x => x.getAttribute('d') || '').join(' ');
			if (!p.location && d.includes('M12 7c-1.93 0-3.5 1.57-3.5 3.5S10.07')) p.location = text(span);
			if (!p.birthDate && d.includes('M8 10c0-2.21 1.79-4 4-4v2c-1.1')) p.birthDate = text(span);
			if (!p.joinDate && d.includes('M7 4V3h2v1h6V3h2v1h1.5')) p.joinDate = text(span);
		});
	}

	const avatar = document.querySelector('a[href$="/photo"] img') ||
		document.querySelector('div[data-testid="UserAvatar-Container"] img');
	if (avatar) p.images.profile_image = avatar.src;
	const banner = document.querySelector('a[href$="/header_photo"] img') ||
		document.querySelector('img[src*="profile_banners"]');
	if (banner) p.images.header_image = banner.src;

	document.querySelectorAll('a[href$="/following"], a[href$="/followers"], a[href$="/verified_followers"]').forEach(a => {
		const value = Array.from(a.querySelectorAll('span')).map(s => s.textContent.trim())
			.find(t => /^\d/.test(t)) || '';
		const href = a.getAttribute('href') || '';
		if (href.endsWith('/following')) stats.following = value;
		else if (!stats.followers) stats.followers = value;
	});

	return JSON.stringify({ profile: p, stats: stats });
}`
